package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/samlahq/samla/internal/clock"
	"github.com/samlahq/samla/internal/config"
	"github.com/samlahq/samla/internal/server"
	"github.com/samlahq/samla/pkg/db"
	"github.com/samlahq/samla/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
