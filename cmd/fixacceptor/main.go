/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command fixacceptor runs a FIX acceptor: it listens for inbound
// connections, authenticates the first Logon against a YAML-configured
// peer registry, and logs session traffic, all exposed through a cobra
// command set.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fixengine/fixlog"
	"fixengine/fixnet"
	"fixengine/fixserver"
	"fixengine/fixsession"
)

var (
	cfgFile    string
	statusPort int
)

var rootCmd = &cobra.Command{
	Use:   "fixacceptor",
	Short: "FIX session-engine acceptor",
	Long: `fixacceptor listens for inbound FIX sessions, authenticates each
connection's first Logon against a registered peer list, and hands off
authenticated sessions to the engine's session-layer state machine.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start accepting connections",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to acceptor YAML config")
	serveCmd.Flags().IntVar(&statusPort, "status-port", 8090, "port for the read-only HTTP status/metrics surface")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers FIXACCEPTOR_-prefixed environment variables over the
// YAML file at cfgFile: env > file > defaults.
func loadConfig() (*fixserver.FileConfig, error) {
	fileCfg, err := fixserver.LoadFileConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", cfgFile, err)
	}

	v := viper.New()
	v.SetEnvPrefix("FIXACCEPTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.IsSet("HOST") {
		fileCfg.Host = v.GetString("HOST")
	}
	if v.IsSet("PORT") {
		fileCfg.Port = v.GetInt("PORT")
	}
	if v.IsSet("DEFAULT_STORE_DSN") {
		fileCfg.DefaultStoreDSN = v.GetString("DEFAULT_STORE_DSN")
	}
	return fileCfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	log := fixlog.ForComponent("cmd/fixacceptor")

	fileCfg, err := loadConfig()
	if err != nil {
		return err
	}
	serverCfg := fileCfg.ServerConfig()

	listener, err := fixnet.ListenTCP(fmt.Sprintf("%s:%d", serverCfg.Host, serverCfg.Port))
	if err != nil {
		return fmt.Errorf("binding %s:%d: %w", serverCfg.Host, serverCfg.Port, err)
	}

	srv := fixserver.NewServer(serverCfg, listener)
	status := fixserver.NewStatusServer(srv, statusPort)
	srv.SetObservers(fixserver.Observers{
		HeartbeatSent: status.ObserveHeartbeatSent,
		ResendIssued:  status.ObserveResendIssued,
		SequenceGap:   status.ObserveSequenceGap,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serveDone := make(chan error, 1)
	go func() { serveDone <- srv.Serve(ctx) }()

	statusDone := make(chan error, 1)
	go func() { statusDone <- status.Run(ctx) }()

	go drainSessions(ctx, srv, log)

	log.Infof("fixacceptor listening on %s:%d (status on :%d)", serverCfg.Host, serverCfg.Port, statusPort)

	select {
	case <-sigCh:
		log.Info("shutdown signal received")
	case err := <-serveDone:
		if err != nil {
			log.WithError(err).Error("acceptor serve loop exited")
		}
	}

	cancel()
	_ = srv.Close()
	<-statusDone
	return nil
}

// drainSessions logs each newly-authenticated session's traffic. A real
// deployment would hand sessions to business logic instead; this binary's
// job ends at the session layer.
func drainSessions(ctx context.Context, srv *fixserver.Server, log interface {
	Infof(string, ...interface{})
}) {
	for {
		select {
		case <-ctx.Done():
			return
		case sess, ok := <-srv.Sessions():
			if !ok {
				return
			}
			log.Infof("session authenticated: %s", sess.ID())
			go logSessionTraffic(ctx, sess)
		}
	}
}

func logSessionTraffic(ctx context.Context, sess *fixsession.Session) {
	log := fixlog.ForComponent("cmd/fixacceptor")
	for {
		msg, err := sess.Receive(ctx)
		if err != nil {
			log.WithError(err).Infof("session %s closed", sess.ID())
			return
		}
		log.Infof("session %s delivered %s", sess.ID(), msg.MsgType())
	}
}
