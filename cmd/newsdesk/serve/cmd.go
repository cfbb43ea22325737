package serve

import (
	"github.com/julienschmidt/httprouter"
	"github.com/nmoram/newsdesk/auth"
	authapi "github.com/nmoram/newsdesk/auth/api"
	"github.com/nmoram/newsdesk/internal/cmdflags"
	"github.com/nmoram/newsdesk/internal/httpserver"
	"github.com/nmoram/newsdesk/internal/store"
	"github.com/nmoram/newsdesk/news"
	newsapi "github.com/nmoram/newsdesk/news/api"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	bindAddr := "localhost:7370"
	dbPath := "newsdesk.db"
	staticDir := "static"
	tokenTTL := auth.DefaultTokenTTL
	var secretEnvVar string
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the newsdesk HTTP API (auth + news endpoints on one port)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "bind",
				Usage:       "Address to bind and export the API",
				Value:       bindAddr,
				Destination: &bindAddr,
			},
			cmdflags.Database(&dbPath),
			&cli.StringFlag{
				Name:        "static",
				Usage:       "Directory where uploaded images are kept and served from",
				Value:       staticDir,
				Destination: &staticDir,
			},
			&cli.DurationFlag{
				Name:        "token-ttl",
				Usage:       "Lifetime of issued access tokens",
				Value:       tokenTTL,
				Destination: &tokenTTL,
			},
			cmdflags.SecretEnvVar(&secretEnvVar),
		},
		Action: func(ctx *cli.Context) error {
			secret, err := auth.SecretFromEnv(secretEnvVar, nil, nil)
			if err != nil {
				return err
			}
			db, err := store.Open(ctx.Context, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			principals := auth.NewStore(db)
			if err := principals.Setup(ctx.Context); err != nil {
				return err
			}
			articles, err := news.NewStore(db)
			if err != nil {
				return err
			}
			if err := articles.Setup(ctx.Context); err != nil {
				return err
			}

			codec := auth.NewCodec(secret, tokenTTL)
			realm := authapi.NewRealm(
				auth.NewAuthenticator(principals, codec),
				auth.NewAuthorizer(principals, codec))

			router := httprouter.New()
			realm.Routes(router)
			newsapi.NewHandler(articles, staticDir, realm).Routes(router)
			return httpserver.Serve(ctx.Context, bindAddr, router)
		},
	}
}
