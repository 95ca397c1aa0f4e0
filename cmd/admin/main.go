// Package main provides the entry point for the Gajpati admin console: a
// local dashboard server and CLI for managing the Gajpati Industries backend
// over its REST API.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/MishraAmit1/gajpatiadmin/internal/api"
	"github.com/MishraAmit1/gajpatiadmin/internal/browser"
	"github.com/MishraAmit1/gajpatiadmin/internal/buildinfo"
	"github.com/MishraAmit1/gajpatiadmin/internal/config"
	"github.com/MishraAmit1/gajpatiadmin/internal/logging"
	"github.com/MishraAmit1/gajpatiadmin/internal/watcher"
	"github.com/MishraAmit1/gajpatiadmin/sdk/gajpati"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func init() {
	logging.Setup()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	fmt.Printf("Gajpati Admin Version: %s, Commit: %s, BuiltAt: %s\n",
		buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	var (
		configPath string
		doLogin    bool
		doLogout   bool
		doCheck    bool
		username   string
		password   string
		noBrowser  bool
	)
	flag.StringVar(&configPath, "config", "config.yaml", "Configuration file path")
	flag.BoolVar(&doLogin, "login", false, "Log in to the backend and exit")
	flag.BoolVar(&doLogout, "logout", false, "Log out and clear the stored session")
	flag.BoolVar(&doCheck, "check", false, "Check whether a usable session exists")
	flag.StringVar(&username, "username", "", "Username for -login")
	flag.StringVar(&password, "password", "", "")
	flag.BoolVar(&noBrowser, "no-browser", false, "Don't open the console in a browser")
	flag.CommandLine.Usage = func() {
		out := flag.CommandLine.Output()
		_, _ = fmt.Fprintf(out, "Usage of %s\n", os.Args[0])
		flag.CommandLine.VisitAll(func(f *flag.Flag) {
			if f.Name == "password" {
				return
			}
			_, _ = fmt.Fprintf(out, "  -%s\n\t%s\n", f.Name, f.Usage)
		})
	}
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logging.Apply(cfg)

	tokens := gajpati.NewFileTokenStore(cfg.TokenFilePath())
	client, err := gajpati.NewClient(cfg.BackendURL, tokens, &gajpati.ClientOptions{
		Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
	})
	if err != nil {
		log.Fatalf("failed to build backend client: %v", err)
	}
	session := gajpati.NewSession(client)
	client.SetOnAuthExpired(func() {
		log.Warn("session expired; log in again to continue")
		session.SetUser(nil)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case doLogin:
		runLogin(ctx, session, username, password)
	case doLogout:
		session.Logout(ctx)
		fmt.Println("Logged out.")
	case doCheck:
		runCheck(ctx, session)
	default:
		serve(ctx, cfg, configPath, session, gajpati.NewServices(client), noBrowser)
	}
}

func runLogin(ctx context.Context, session *gajpati.Session, username, password string) {
	reader := bufio.NewReader(os.Stdin)
	if strings.TrimSpace(username) == "" {
		fmt.Print("Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Fatalf("failed to read username: %v", err)
		}
		username = strings.TrimSpace(line)
	}
	if password == "" {
		fmt.Print("Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Fatalf("failed to read password: %v", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	result := session.Login(ctx, gajpati.Credentials{Username: username, Password: password})
	if !result.Success {
		log.Fatalf("login failed: %s", result.Error)
	}
	fmt.Printf("Logged in as %s (%s)\n", result.User.Username, result.User.Role)
}

func runCheck(ctx context.Context, session *gajpati.Session) {
	if !session.CheckAuth(ctx) {
		fmt.Println("No usable session. Run with -login first.")
		os.Exit(1)
	}
	if user := session.User(); user != nil {
		fmt.Printf("Session active for %s (%s)\n", user.Username, user.Role)
	} else {
		fmt.Println("Session active.")
	}
}

func serve(ctx context.Context, cfg *config.Config, configPath string, session *gajpati.Session, services *gajpati.Services, noBrowser bool) {
	session.Initialize(ctx)

	server := api.New(cfg, session, services)

	w, err := watcher.NewWatcher(configPath, cfg, func(updated *config.Config) {
		logging.Apply(updated)
		server.ApplyConfig(updated)
	})
	if err != nil {
		log.Fatalf("failed to start config watcher: %v", err)
	}
	defer func() {
		_ = w.Stop()
	}()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return server.Run(groupCtx) })
	group.Go(func() error { return w.Start(groupCtx) })

	log.Infof("admin console listening on %s", cfg.ConsoleURL())
	if cfg.OpenBrowser && !noBrowser {
		if !browser.IsAvailable() {
			log.Debug("no browser available; open the console URL manually")
		} else if errOpen := browser.OpenURL(cfg.ConsoleURL()); errOpen != nil {
			log.Warnf("failed to open browser: %v", errOpen)
		}
	}

	if err = group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("console stopped: %v", err)
	}
	log.Info("console shut down")
}
