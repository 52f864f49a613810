package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
)

const envPrefix = "TICKETS"

type options struct {
	Dir        string
	Out        string
	InMem      bool
	Mode       extract.Mode
	SkipHidden bool
	Watch      bool
	Workers    int
	Debounce   time.Duration
	FieldsPath string
	LogLevel   string
}

// loadOptions parses args. Flags win over TICKETS_* environment variables,
// which win over flag defaults.
func loadOptions(args []string) (options, error) {
	fs := pflag.NewFlagSet("ticket-batch", pflag.ContinueOnError)
	fs.String("dir", "", "directory of ticket files to process (required)")
	fs.String("out", "", "batch XLSX path (default: tickets_batch.xlsx next to dir)")
	fs.Bool("inmem", false, "use an in-memory SQLite database")
	fs.String("mode", string(extract.ModeMultiPage), "extraction mode: multipage or legacy")
	fs.Bool("skip-hidden", true, "skip hidden files and directories")
	fs.Bool("watch", false, "keep watching dir for new files after the first pass")
	fs.Int("workers", 2, "concurrent workers for watched files")
	fs.Duration("debounce", 500*time.Millisecond, "coalesce window for watched file events")
	fs.String("fields", "ticket_fields_config.json", "field configuration file")
	fs.String("loglevel", "info", "log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of ticket-batch:\n\n")
		fmt.Fprintf(os.Stderr, "Processes every ticket under --dir and writes a batch workbook.\n\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEvery flag can also be set as %s_<FLAG>, e.g. %s_SKIP_HIDDEN=false.\n", envPrefix, envPrefix)
	}
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return options{}, fmt.Errorf("bind flags: %w", err)
	}

	mode, err := extract.ParseMode(v.GetString("mode"))
	if err != nil {
		return options{}, err
	}
	o := options{
		Dir:        v.GetString("dir"),
		Out:        v.GetString("out"),
		InMem:      v.GetBool("inmem"),
		Mode:       mode,
		SkipHidden: v.GetBool("skip-hidden"),
		Watch:      v.GetBool("watch"),
		Workers:    v.GetInt("workers"),
		Debounce:   v.GetDuration("debounce"),
		FieldsPath: v.GetString("fields"),
		LogLevel:   v.GetString("loglevel"),
	}
	if strings.TrimSpace(o.Dir) == "" {
		return options{}, errors.New("--dir is required")
	}
	if o.Out == "" {
		o.Out = filepath.Join(filepath.Dir(filepath.Clean(o.Dir)), "tickets_batch.xlsx")
	}
	return o, nil
}
