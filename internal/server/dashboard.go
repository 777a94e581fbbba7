package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jimdaga/carspot/internal/geocode"
	"github.com/jimdaga/carspot/internal/ledger"
)

// DashboardHandler renders the single-page dashboard with the current state
// embedded as JSON, so the first paint needs no extra round trip.
func DashboardHandler(l *ledger.Ledger, geo *geocode.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		selected, _ := sessions.Default(c).Get(sessionSpotterKey).(string)
		state := buildState(c.Request.Context(), l, geo, selected)

		b, err := json.Marshal(state)
		if err != nil {
			c.String(http.StatusInternalServerError, "state error: %v", err)
			return
		}

		html := fmt.Sprintf(dashboardHTMLTemplate, string(b))
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	}
}

// dashboardHTMLTemplate is the dashboard page, with %s placeholder for the
// embedded state JSON.
const dashboardHTMLTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Jucy Car Sighting Game</title>
  <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
  <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
  <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 0; display: flex; }
    aside { width: 240px; padding: 20px; background: #f5f5f5; min-height: 100vh; box-sizing: border-box; }
    main { flex: 1; padding: 20px; max-width: 960px; }
    .card { border: 1px solid #ddd; border-radius: 8px; padding: 12px 16px; margin-bottom: 16px; }
    .card h3 { margin: 0 0 6px; font-size: 14px; color: #666; text-transform: uppercase; }
    .cards { display: flex; gap: 16px; }
    .cards .card { flex: 1; }
    #map { height: 360px; border-radius: 8px; margin-bottom: 16px; }
    .history-entry { display: flex; justify-content: space-between; padding: 6px 0; border-bottom: 1px solid #eee; }
    button.delete { color: #c00; background: none; border: none; cursor: pointer; }
    button.submit, button.reset { width: 100%%; padding: 8px; margin-top: 8px; cursor: pointer; }
    button.reset { background: #fee; border: 1px solid #c00; color: #c00; }
    select { width: 100%%; padding: 6px; }
    label.geo { display: block; margin-top: 8px; font-size: 13px; }
  </style>
</head>
<body>
  <aside>
    <h2>Jucy Car Counters</h2>
    <div id="counters"></div>
    <select id="spotter"></select>
    <label class="geo"><input type="checkbox" id="useLocation" checked> attach my location</label>
    <button class="submit" id="submit">Add Sighting</button>
    <button class="reset" id="reset">Reset All Counts</button>
  </aside>
  <main>
    <h1>Jucy Car Sighting Game</h1>
    <div class="cards">
      <div class="card"><h3>Leaderboard</h3><div id="leaderboard"></div></div>
      <div class="card"><h3>Streak</h3><div id="streak"></div></div>
    </div>
    <canvas id="chart" height="120"></canvas>
    <h2>History Log</h2>
    <div id="history"></div>
    <h2>Sighting Map</h2>
    <div id="map"></div>
  </main>

  <!-- Server-embedded dashboard state -->
  <script>
    const INITIAL_STATE = %s;
  </script>

  <script>
    let chartInstance = null;
    let map = null;
    let markerLayer = null;
    const palette = ['#888', '#36a2eb', '#4bc0c0', '#ff9f40', '#9966ff'];

    function renderCounters(state) {
      const el = document.getElementById('counters');
      el.innerHTML = state.spotters.map(s => '<p>' + s.name + ': ' + s.count + '</p>').join('');
    }

    function renderSelect(state) {
      const el = document.getElementById('spotter');
      el.innerHTML = state.spotters.map(s => '<option>' + s.name + '</option>').join('');
      if (state.selected_spotter) {
        el.value = state.selected_spotter;
      }
    }

    function renderCards(state) {
      document.getElementById('leaderboard').textContent = state.leaderboard.message;
      const champ = state.streak_champion;
      document.getElementById('streak').textContent = champ.streak > 0
        ? champ.name + ' is on a ' + champ.streak + '-car streak'
        : 'No active streak';
    }

    function renderChart(state) {
      const ctx = document.getElementById('chart').getContext('2d');
      if (chartInstance) {
        chartInstance.destroy();
      }
      chartInstance = new Chart(ctx, {
        type: 'bar',
        data: {
          labels: state.spotters.map(s => s.name),
          datasets: [{
            label: 'Sightings',
            data: state.spotters.map(s => s.count),
            backgroundColor: state.spotters.map((s, i) => palette[(i + 1) %% palette.length])
          }]
        },
        options: {
          responsive: true,
          plugins: { title: { display: true, text: 'Jucy Car Sightings Visualization' } },
          scales: { y: { beginAtZero: true, ticks: { precision: 0 } } }
        }
      });
    }

    function renderHistory(state) {
      const el = document.getElementById('history');
      if (!state.recent.length) {
        el.innerHTML = '<p>No sightings logged.</p>';
        return;
      }
      el.innerHTML = state.recent.map(e =>
        '<div class="history-entry"><span>' +
        new Date(e.timestamp).toLocaleString() + ' — ' + e.spotter + ' — Near ' + e.place +
        '</span><button class="delete" data-id="' + e.id + '">delete</button></div>'
      ).join('');
      el.querySelectorAll('button.delete').forEach(btn => {
        btn.addEventListener('click', () => deleteSighting(btn.dataset.id));
      });
    }

    function renderMap(state) {
      if (!map) {
        map = L.map('map').setView([59.91, 10.75], 5);
        L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
          attribution: '&copy; OpenStreetMap contributors'
        }).addTo(map);
        markerLayer = L.layerGroup().addTo(map);
      }
      markerLayer.clearLayers();
      const points = [];
      for (const m of state.markers) {
        points.push([m.lat, m.lon]);
        L.circleMarker([m.lat, m.lon], {
          radius: 7,
          color: palette[m.color %% palette.length],
          fillOpacity: 0.7
        }).bindPopup(m.spotter + '<br>' + new Date(m.timestamp).toLocaleString())
          .addTo(markerLayer);
      }
      if (points.length) {
        map.fitBounds(points, { maxZoom: 12, padding: [20, 20] });
      }
    }

    function render(state) {
      renderCounters(state);
      renderSelect(state);
      renderCards(state);
      renderChart(state);
      renderHistory(state);
      renderMap(state);
    }

    async function refresh() {
      const resp = await fetch('/api/state');
      if (resp.ok) {
        render(await resp.json());
      }
    }

    function currentPosition() {
      return new Promise(resolve => {
        if (!navigator.geolocation || !document.getElementById('useLocation').checked) {
          resolve(null);
          return;
        }
        navigator.geolocation.getCurrentPosition(
          pos => resolve({ latitude: pos.coords.latitude, longitude: pos.coords.longitude }),
          () => resolve(null),
          { timeout: 5000 }
        );
      });
    }

    async function submitSighting() {
      const spotter = document.getElementById('spotter').value;
      const coords = await currentPosition();
      const body = coords ? { spotter, ...coords } : { spotter };
      const resp = await fetch('/api/sightings', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify(body)
      });
      if (resp.ok) {
        refresh();
      }
    }

    async function deleteSighting(id) {
      const resp = await fetch('/api/sightings/' + id, { method: 'DELETE' });
      if (resp.ok || resp.status === 404) {
        refresh();
      }
    }

    async function resetAll() {
      if (!confirm('Reset all counts and clear the history?')) {
        return;
      }
      const resp = await fetch('/api/reset', { method: 'POST' });
      if (resp.ok) {
        refresh();
      }
    }

    document.getElementById('submit').addEventListener('click', submitSighting);
    document.getElementById('reset').addEventListener('click', resetAll);
    render(INITIAL_STATE);
  </script>
</body>
</html>
`
