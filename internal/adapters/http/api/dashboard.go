// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// dashboardHandler serves the standings dashboard page.
type dashboardHandler struct{}

func newDashboardHandler() *dashboardHandler {
	return &dashboardHandler{}
}

// HandleDashboard handles GET /dashboard requests with a small HTML
// page that polls /standings and /stats.
func (h *dashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(dashboardHTML))
}

const dashboardHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Standings</title>
    <style>
      body{font-family:sans-serif;margin:2rem;background:#111;color:#eee}
      table{border-collapse:collapse;width:100%;margin-top:1rem}
      th,td{border:1px solid #333;padding:.4rem .8rem;text-align:left}
      th{background:#222}
      .rate{color:#f66}
      #meta{color:#888;font-size:.85rem}
    </style>
  </head>
  <body>
    <h1>Standings</h1>
    <div id="meta"></div>
    <table>
      <thead>
        <tr><th>Member</th><th>Hits</th><th>Misses</th><th>Pushes</th><th>Voids</th><th>Miss rate</th></tr>
      </thead>
      <tbody id="rows"></tbody>
    </table>
    <script>
      async function refresh() {
        const [standings, stats] = await Promise.all([
          fetch('/standings?sort=misses').then(r => r.json()),
          fetch('/stats').then(r => r.json()),
        ]);
        document.getElementById('rows').innerHTML = standings.map(e =>
          '<tr><td>' + e.member_id + '</td><td>' + e.hits + '</td><td>' + e.misses +
          '</td><td>' + e.pushes + '</td><td>' + e.voids +
          '</td><td class="rate">' + (e.miss_rate * 100).toFixed(1) + '%</td></tr>'
        ).join('');
        document.getElementById('meta').textContent =
          'queue: ' + (stats.queueLength ?? 0) + ' · catalog: ' + (stats.catalogSize ?? 0);
      }
      refresh();
      setInterval(refresh, 5000);
    </script>
  </body>
</html>`
