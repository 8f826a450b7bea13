package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relate-orm/relate/config"
	"github.com/relate-orm/relate/migrator"
)

var initDriver string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(cfgPath, initDriver); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s created for %s\n", cfgPath, initDriver)
		return nil
	},
}

var (
	modelName         string
	modelFields       string
	modelAssociations string
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Add a model type to the config file",
	Example: `  relate model --name user --fields name:string,age:integer --associations pets:pet:nullify
  relate model --name pet --fields user_id:integer,name:string`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if modelName == "" {
			return fmt.Errorf("--name is required")
		}

		fields, err := config.ParseFields(modelFields)
		if err != nil {
			return err
		}
		associations, err := config.ParseAssociations(modelAssociations)
		if err != nil {
			return err
		}

		model := config.Model{Name: modelName, Fields: fields, Associations: associations}
		if err := config.AddModel(cfgPath, model); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "model %s added to %s\n", modelName, cfgPath)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:               "migrate [model...]",
	Short:             "Create the missing tables of the configured model types",
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migrator.New(db).CreateTable(args...); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "tables created")
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initDriver, "driver", "sqlite", "database driver: sqlite or postgres")

	modelCmd.Flags().StringVar(&modelName, "name", "", "model name, e.g. user")
	modelCmd.Flags().StringVar(&modelFields, "fields", "", "fields, e.g. name:string,age:integer")
	modelCmd.Flags().StringVar(&modelAssociations, "associations", "", "has-many associations, e.g. pets:pet:nullify")

	rootCmd.AddCommand(initCmd, modelCmd, migrateCmd)
}
