package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/bozoleague/propline/internal/config"
)

func TestLoad(t *testing.T) {
	Convey("Given no overrides", t, func() {
		os.Unsetenv("PROPLINE_CONFIG")

		cfg, err := config.Load()
		So(err, ShouldBeNil)
		So(cfg.Addr, ShouldEqual, ":9080")
		So(cfg.Store, ShouldEqual, "memory")
		So(cfg.QueueSize, ShouldEqual, 10_000)
	})

	Convey("Given environment overrides", t, func() {
		t.Setenv("PROPLINE_ADDR", ":7070")
		t.Setenv("PROPLINE_WORKER_COUNT", "3")
		t.Setenv("PROPLINE_RESOLVE_CRON", "0 9 * * 2")

		cfg, err := config.Load()
		So(err, ShouldBeNil)
		So(cfg.Addr, ShouldEqual, ":7070")
		So(cfg.WorkerCount, ShouldEqual, 3)
		So(cfg.ResolveCron, ShouldEqual, "0 9 * * 2")
	})

	Convey("Given a config file with env on top", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "propline.yaml")
		So(os.WriteFile(path, []byte("addr: \":6060\"\nstore: sqlite\nsqlite_path: bets.db\n"), 0o600), ShouldBeNil)
		t.Setenv("PROPLINE_CONFIG", path)
		t.Setenv("PROPLINE_ADDR", ":6061")

		cfg, err := config.Load()
		So(err, ShouldBeNil)
		So(cfg.Addr, ShouldEqual, ":6061")
		So(cfg.Store, ShouldEqual, "sqlite")
		So(cfg.SQLitePath, ShouldEqual, "bets.db")
	})

	Convey("Given invalid values", t, func() {
		Convey("Then an unknown store is rejected", func() {
			t.Setenv("PROPLINE_STORE", "etcd")
			_, err := config.Load()
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("Then a missing file fails loudly", func() {
			t.Setenv("PROPLINE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
			_, err := config.Load()
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})
	})
}
