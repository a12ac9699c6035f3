package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roniherschmann/biolink/internal/config"
	"github.com/roniherschmann/biolink/internal/store"
)

// Execute implements the go-flags Commander interface for VerifyCommand.
func (c *VerifyCommand) Execute(args []string) error {
	return c.run(context.Background(), loadConfig(c.globals))
}

func (c *VerifyCommand) run(ctx context.Context, cfg config.Config) error {
	failed := 0
	check := func(name string, err error) {
		if err != nil {
			failed++
			fmt.Fprintf(c.out, "FAIL  %s: %v\n", name, err)
			return
		}
		fmt.Fprintf(c.out, "ok    %s\n", name)
	}

	st, err := store.Open(cfg.DBDSN)
	check("event store configured", err)
	if err == nil {
		defer st.Close()
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pingErr := st.Ping(ctx)
		check("database reachable ("+st.Dialect().String()+")", pingErr)
		if pingErr == nil {
			check("analytics tables present", st.SchemaReady(ctx))
		}
	}

	var pwErr error
	if cfg.AdminPassword == "" {
		pwErr = errors.New("ADMIN_PASSWORD is empty, admin login is disabled")
	}
	check("admin password set", pwErr)
	if cfg.AdminSessionKey == "" {
		fmt.Fprintln(c.out, "note  ADMIN_SESSION_KEY not set, admin sessions reset on restart")
	}

	if failed > 0 {
		return fmt.Errorf("%d setup check(s) failed", failed)
	}
	return nil
}
