// Package main manages model documents in a BoltDB file.
//
//	modeldb -db models.db import shop shop.yaml
//	modeldb -db models.db list
//	modeldb -db models.db ops shop
//	modeldb -db models.db export shop > shop.yaml
//	modeldb -db models.db delete shop
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/Comcast/quill/model"
	"github.com/Comcast/quill/model/bolt"
)

func main() {
	var (
		dbFile  = flag.String("db", "models.db", "database file")
		verbose = flag.Bool("v", false, "verbose")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] import NAME FILE | list | ops NAME | export NAME | delete NAME\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx := context.Background()
	store := bolt.NewStore(*dbFile)
	store.Debug = *verbose
	if err := store.Open(ctx); err != nil {
		log.Fatal(err)
	}
	err := run(ctx, store, flag.Args())
	if cerr := store.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, store *bolt.Store, args []string) error {
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	need := func(n int) {
		if len(args) != n+1 {
			flag.Usage()
			os.Exit(1)
		}
	}

	switch args[0] {
	case "import":
		need(2)
		bs, err := os.ReadFile(args[2])
		if err != nil {
			return err
		}
		m, err := model.ParseYAML(bs)
		if err != nil {
			return err
		}
		return store.Put(ctx, args[1], m.Document())
	case "list":
		need(0)
		names, err := store.List(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	case "ops":
		need(1)
		m, err := store.Model(ctx, args[1])
		if err != nil {
			return err
		}
		for _, name := range m.Operations() {
			fmt.Println(name)
		}
		return nil
	case "export":
		need(1)
		doc, err := store.Document(ctx, args[1])
		if err != nil {
			return err
		}
		bs, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(bs)
		return err
	case "delete":
		need(1)
		return store.Delete(ctx, args[1])
	}
	flag.Usage()
	os.Exit(1)
	return nil
}
