// Package function exposes a prnag run as an HTTP-triggered cloud function,
// so a scheduler can produce the report without a VM or cron host.
package function

import (
	"net/http"
	"os"

	"github.com/csweichel/prnag/bot"
	"github.com/sirupsen/logrus"
)

const defaultConfigPath = "./serverless_function_source_code/config/config.yaml"

type runner interface {
	Run(r *http.Request) error
}

var newRunner = func(cfg bot.Config) (runner, error) {
	b, err := bot.New(cfg)
	if err != nil {
		return nil, err
	}
	return botRunner{b}, nil
}

type botRunner struct {
	b *bot.Bot
}

func (r botRunner) Run(req *http.Request) error {
	return r.b.Run(req.Context())
}

// HandleReport produces and sends one report per request
func HandleReport(w http.ResponseWriter, r *http.Request) {
	fn := os.Getenv("PRNAG_CONFIG")
	if fn == "" {
		fn = defaultConfigPath
	}

	cfg, err := bot.LoadConfig(fn)
	if err != nil {
		logrus.WithError(err).Error("cannot load config")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	b, err := newRunner(*cfg)
	if err != nil {
		logrus.WithError(err).Error("cannot create bot")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	err = b.Run(r)
	if err != nil {
		logrus.WithError(err).Error("report failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
