package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relate-orm/relate"
)

// countCacher associations keeping a count cache on their owner
type countCacher interface {
	UpdateCountCache(db *relate.DB, owner *relate.Model) error
}

var modelsCmd = &cobra.Command{
	Use:               "models",
	Short:             "List the configured model types and their associations",
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		out := cmd.OutOrStdout()
		for _, name := range db.Models() {
			mt, err := db.ModelType(name)
			if err != nil {
				return err
			}

			fields := make([]string, 0, len(mt.Meta.Fields))
			for _, field := range mt.Meta.Fields {
				fields = append(fields, fmt.Sprintf("%s:%s", field.Name, field.DataType))
			}
			fmt.Fprintf(out, "%s (%s) %s\n", name, mt.Meta.Table, strings.Join(fields, ","))

			for _, association := range mt.Associations() {
				fmt.Fprintf(out, "  %s -> %s\n", association.Name(), association.Related().Meta.Name)
			}
		}
		return nil
	},
}

// findOwner returns the model of type model with unique key key
func findOwner(db *relate.DB, model, key string) (*relate.Model, error) {
	owners, err := db.FindInsist(model, key)
	if err != nil {
		return nil, err
	}
	return owners.FirstInsist()
}

var countCmd = &cobra.Command{
	Use:               "count <model> <key> <association>",
	Short:             "Print the number of rows related to a model",
	Args:              cobra.ExactArgs(3),
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		owner, err := findOwner(db, args[0], args[1])
		if err != nil {
			return err
		}

		count, err := db.Model(owner).Association(args[2]).Count()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), count)
		return nil
	},
}

var idsCmd = &cobra.Command{
	Use:               "ids <model> <key> <association>",
	Short:             "Print the primary keys of the rows related to a model",
	Args:              cobra.ExactArgs(3),
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		owner, err := findOwner(db, args[0], args[1])
		if err != nil {
			return err
		}

		ids, err := db.Model(owner).Association(args[2]).Collection().Ids()
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var recountCmd = &cobra.Command{
	Use:               "recount <model> <association>",
	Short:             "Recompute the count cache of an association on every model",
	Args:              cobra.ExactArgs(2),
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		mt, err := db.ModelType(args[0])
		if err != nil {
			return err
		}
		association, err := mt.Association(args[1])
		if err != nil {
			return err
		}
		cacher, ok := association.(countCacher)
		if !ok {
			return fmt.Errorf("%s.%s keeps no count cache", args[0], args[1])
		}

		owners, err := db.All(args[0]).AsArray()
		if err != nil {
			return err
		}

		err = db.Transaction(func(tx *relate.DB) error {
			for _, owner := range owners {
				if err := cacher.UpdateCountCache(tx, owner); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "recounted %d %s\n", len(owners), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd, countCmd, idsCmd, recountCmd)
}
