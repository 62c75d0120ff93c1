package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"bootprof/internal/report"
	"bootprof/internal/runner"
)

// StartServer serves the profile over HTTP. Each request to /api/profile
// re-runs the boot, so refreshing the page gives a fresh measurement.
func StartServer(dir string, profileOpts runner.Options, reportOpts report.Options) {
	mux := http.NewServeMux()

	mux.HandleFunc("/", handleIndex)
	mux.HandleFunc("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		handleProfile(w, dir, profileOpts)
	})
	mux.HandleFunc("/api/report", func(w http.ResponseWriter, r *http.Request) {
		handleReport(w, dir, profileOpts, reportOpts)
	})

	port := "8080"
	fmt.Printf("Starting bootprof web server at http://localhost:%s\n", port)
	fmt.Printf("Go to http://localhost:%s in your browser.\n", port)

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal(err)
	}
}

func handleProfile(w http.ResponseWriter, dir string, opts runner.Options) {
	opts.Quiet = true
	res, err := runner.Profile(dir, opts)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(res)
}

func handleReport(w http.ResponseWriter, dir string, opts runner.Options, reportOpts report.Options) {
	opts.Quiet = true
	res, err := runner.Profile(dir, opts)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, report.Generate(res, reportOpts))
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

// A single self-contained page: fetches the report and shows it preformatted,
// with the raw JSON one link away.
const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>bootprof</title>
<style>
body { font-family: monospace; background: #1e1e2e; color: #cdd6f4; margin: 2em; }
a { color: #89b4fa; }
pre { white-space: pre-wrap; }
</style>
</head>
<body>
<h1>bootprof</h1>
<p>Profiling the app boot, hold on... (<a href="/api/profile">raw JSON</a>)</p>
<pre id="out">loading…</pre>
<script>
fetch('/api/report').then(r => r.text()).then(t => {
  document.getElementById('out').textContent = t;
}).catch(e => {
  document.getElementById('out').textContent = 'error: ' + e;
});
</script>
</body>
</html>
`
