package app

import (
	"database/sql"

	"github.com/go-chi/oauth"
	"github.com/mbolis/alumni-survey/config"
	"github.com/mbolis/alumni-survey/session"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
	Sessions session.Store
}
