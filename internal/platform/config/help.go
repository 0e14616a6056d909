// internal/platform/config/help.go
package config

import (
	"fmt"
	"io"
	"runtime"
)

// EnvironmentHelp se muestra al final de la ayuda de la CLI.
const EnvironmentHelp = `
CONFIGURATION PRECEDENCE:
  defaults -> YAML file (--config / TRUSTSCAN_CONFIG) -> .env file
  -> TRUSTSCAN_* environment -> command line flags

ENVIRONMENT VARIABLES:
  TRUSTSCAN_WORKERS=8                 Max concurrent collectors
  TRUSTSCAN_TIMEOUT=30                Overall scan deadline in seconds
  TRUSTSCAN_COLLECTOR_TIMEOUT=15      Default per-collector timeout
  TRUSTSCAN_SCHEDULER=priority        priority | weighted
  TRUSTSCAN_LOG_LEVEL=info            debug | info | warn | error
  TRUSTSCAN_OUTPUT_DIR=scans          Report directory
  TRUSTSCAN_OUTPUT_FORMAT=json        json | yaml
  TRUSTSCAN_NO_UI=true                Plain table output
  TRUSTSCAN_ADDR=:8080                HTTP API address
  TRUSTSCAN_RATE_LIMIT=10             API scans per minute per client
  TRUSTSCAN_STORE_DRIVER=sqlite       sqlite | postgres | memory
  TRUSTSCAN_STORE_DSN=trustscan.db    SQLite path or postgres URL
  TRUSTSCAN_VERIFIED_SITES=file.yaml  Verified sites list

  API keys (plain or TRUSTSCAN_ prefixed, also read from .env):
  GITHUB_TOKEN                        Higher GitHub API rate limit
  PHISHTANK_API_KEY                   PhishTank application key
  ABUSEIPDB_API_KEY                   Enables the abuseipdb collector

  Collector-specific (replace GITHUB with the collector name):
  TRUSTSCAN_COLLECTORS_GITHUB_ENABLED=false
  TRUSTSCAN_COLLECTORS_GITHUB_TIMEOUT=20
  TRUSTSCAN_COLLECTORS_GITHUB_PRIORITY=5

COLLECTORS:
  stage 0: whois ssl hosting scraper archive urlhaus phishtank spamhaus
  stage 1: patterns github abuseipdb (use stage 0 results)
`

// PrintVersion escribe la información de versión.
func PrintVersion(w io.Writer, version, commit, date string) {
	fmt.Fprintf(w, "trustscan %s\n", version)
	fmt.Fprintf(w, "  Commit:  %s\n", commit)
	fmt.Fprintf(w, "  Built:   %s\n", date)
	fmt.Fprintf(w, "  Go:      %s\n", runtime.Version())
}
