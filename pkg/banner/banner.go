package banner

import (
	"fmt"
	"time"

	"streamflow/pkg/config"
)

const banner = `
███████╗████████╗██████╗ ███████╗ █████╗ ███╗   ███╗███████╗██╗      ██████╗ ██╗    ██╗
██╔════╝╚══██╔══╝██╔══██╗██╔════╝██╔══██╗████╗ ████║██╔════╝██║     ██╔═══██╗██║    ██║
███████╗   ██║   ██████╔╝█████╗  ███████║██╔████╔██║█████╗  ██║     ██║   ██║██║ █╗ ██║
╚════██║   ██║   ██╔══██╗██╔══╝  ██╔══██║██║╚██╔╝██║██╔══╝  ██║     ██║   ██║██║███╗██║
███████║   ██║   ██║  ██║███████╗██║  ██║██║ ╚═╝ ██║██║     ███████╗╚██████╔╝╚███╔███╔╝
╚══════╝   ╚═╝   ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝╚═╝     ╚═╝╚═╝     ╚══════╝ ╚═════╝  ╚══╝╚══╝
`

// PrintWithEff prints the startup banner with the effective config summary.
func PrintWithEff(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	dbPath := eff.DBPath
	if dbPath == "" && eff.Config != nil {
		dbPath = eff.Config.Server.DBPath
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config:   %s\n", src)

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/streams/{stream}/chat               - Send a (paid) chat message")
	fmt.Println("GET  /v1/streams/{stream}/interactions       - Interaction history")
	fmt.Println("GET  /v1/streams/{stream}/pinned             - Currently pinned messages")
	fmt.Println("POST /v1/streams/{stream}/polls              - Create a poll (backend key)")
	fmt.Println("POST /v1/streams/{stream}/polls/{poll}/votes - Cast a paid vote")
	fmt.Println("GET  /v1/streams/{stream}/ws                 - Realtime event stream")

	fmt.Println("\n== Production? =================================================")
	be, fe, ak := 0, 0, 0
	if eff.Config != nil {
		be = len(eff.Config.Security.APIKeys.Backend)
		fe = len(eff.Config.Security.APIKeys.Frontend)
		ak = len(eff.Config.Security.APIKeys.Admin)
	}
	if be > 0 {
		fmt.Printf("- Backend API keys: OK (%d)\n", be)
	} else {
		fmt.Println("- Backend API keys: MISSING (required for poll creation)")
	}
	if fe > 0 {
		fmt.Printf("- Frontend API keys: OK (%d)\n", fe)
	} else {
		fmt.Println("- Frontend API keys: MISSING (required for viewer clients)")
	}
	if ak > 0 {
		fmt.Printf("- Admin API keys: OK (%d)\n", ak)
	} else {
		fmt.Println("- Admin API keys: MISSING (required for admin tooling)")
	}

	if eff.Config != nil && len(eff.Config.Security.SigningKeys) > 0 {
		fmt.Println("- Viewer signing keys: configured")
	} else {
		fmt.Println("- Viewer signing keys: MISSING (frontend submissions will be rejected)")
	}

	tlsOK := eff.Config != nil && eff.Config.Server.TLS.CertFile != "" && eff.Config.Server.TLS.KeyFile != ""
	if tlsOK {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}

	if eff.Config != nil && eff.Config.Retention.Enabled {
		if eff.Config.Retention.Cron != "" {
			fmt.Printf("- Retention: enabled (cron=%s)\n", eff.Config.Retention.Cron)
		} else if eff.Config.Retention.Period.Duration() > time.Duration(0) {
			fmt.Printf("- Retention: enabled (period=%s)\n", eff.Config.Retention.Period.Duration())
		} else {
			fmt.Println("- Retention: enabled")
		}
	} else {
		fmt.Println("- Retention: disabled")
	}

	fmt.Println("\n== Logs: =================================================")
}
