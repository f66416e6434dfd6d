package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gen"
	"gorm.io/gorm"
)

func main() {
	var dsn, out, table string
	flag.StringVar(&dsn, "dsn", os.Getenv("RESIN_DB_DSN"), "postgres dsn")
	flag.StringVar(&out, "out", "internal/adapter/kv/gorm/query", "output dir for generated query code")
	flag.StringVar(&table, "table", "kv_entries", "table to generate the model for")
	flag.Parse()

	if dsn == "" {
		log.Fatal("missing --dsn or RESIN_DB_DSN")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}

	// models land in ../model next to OutPath
	g := gen.NewGenerator(gen.Config{
		OutPath:      out,
		ModelPkgPath: "model",
		Mode:         gen.WithoutContext,
	})
	g.UseDB(db)
	g.GenerateModelAs(table, "KVEntry")
	g.Execute()

	fmt.Printf("generated %s model next to %s\n", table, out)
}
