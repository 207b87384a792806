/*
 * Copyright 2026 the Netwatch Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/ravindupe/netwatch/pkg/config"
	"github.com/ravindupe/netwatch/pkg/core"
	"github.com/ravindupe/netwatch/pkg/core/api"
	"github.com/ravindupe/netwatch/pkg/db"
	"github.com/ravindupe/netwatch/pkg/lifecycle"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to netwatch config file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		return err
	}

	mainLogger, err := lifecycle.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}

	store, err := db.New(cfg.Database)
	if err != nil {
		return err
	}

	server := core.NewServer(store, mainLogger.WithComponent("core"),
		core.WithTopologyPushInterval(time.Duration(cfg.TopologyPushInterval)))

	apiServer := api.NewAPIServer(server, mainLogger.WithComponent("api"),
		api.WithListenAddr(cfg.ListenAddr))

	return lifecycle.RunServer(ctx, apiServer, server, mainLogger)
}
