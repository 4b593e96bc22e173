// cmd/backup/main.go: exporta o restaura la base completa como zip.
// Uso:
//
//	go run ./cmd/backup export -o backup.zip
//	go run ./cmd/backup restore -i backup.zip
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"consigna/internal/config"
	"consigna/internal/infra"
	"consigna/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	ctx := context.Background()
	// Restores flush the price cache when Redis is reachable.
	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis no disponible; la cache de precios no se vaciará")
		rdb = nil
	}
	svc := service.NewBackupService(db, rdb)

	switch os.Args[1] {
	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		out := fs.String("o", fmt.Sprintf("backup_consigna_%s.zip", time.Now().Format("20060102_150405")), "archivo de salida")
		_ = fs.Parse(os.Args[2:])

		f, err := os.Create(*out)
		if err != nil {
			log.Fatal().Err(err).Msg("crear archivo")
		}
		if err := svc.Exportar(ctx, f); err != nil {
			f.Close()
			_ = os.Remove(*out)
			log.Fatal().Err(err).Msg("exportar")
		}
		if err := f.Close(); err != nil {
			log.Fatal().Err(err).Msg("cerrar archivo")
		}
		log.Info().Str("archivo", *out).Msg("backup exportado")

	case "restore":
		fs := flag.NewFlagSet("restore", flag.ExitOnError)
		in := fs.String("i", "", "backup .zip a restaurar")
		_ = fs.Parse(os.Args[2:])
		if *in == "" {
			usage()
		}

		f, err := os.Open(*in)
		if err != nil {
			log.Fatal().Err(err).Msg("abrir archivo")
		}
		defer f.Close()
		st, err := f.Stat()
		if err != nil {
			log.Fatal().Err(err).Msg("stat")
		}
		res, err := svc.Restaurar(ctx, f, st.Size())
		if err != nil {
			log.Fatal().Err(err).Msg("restaurar")
		}
		for _, t := range res.Tablas {
			log.Info().Str("tabla", t.Tabla).Int64("registros", t.Registros).Msg("restaurada")
		}

	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "uso: backup export [-o archivo.zip] | backup restore -i archivo.zip")
	os.Exit(2)
}
