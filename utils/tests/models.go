package tests

import (
	"github.com/relate-orm/relate"
	"github.com/relate-orm/relate/schema"
)

// Models a user has many pets (count cached, nullified on delete) and many toys (polymorphic,
// erased on delete). A pet has many toys too (polymorphic, deleted with the pet).
func Models() []relate.ModelConfig {
	return []relate.ModelConfig{
		{
			Name: "user",
			Fields: []relate.FieldConfig{
				{Name: "name", Type: schema.String},
				{Name: "age", Type: schema.Integer, AllowNull: true},
			},
			Associations: []relate.AssociationConfig{
				{Name: "pets", CountCache: true, Dependent: relate.DependentNullify},
				{Name: "toys", Foreign: "toy", As: "owner", Dependent: relate.DependentErase},
			},
		},
		{
			Name: "pet",
			Fields: []relate.FieldConfig{
				{Name: "user_id", Type: schema.Integer, Default: 0},
				{Name: "name", Type: schema.String},
			},
			Associations: []relate.AssociationConfig{
				{Name: "toys", Foreign: "toy", As: "owner", Dependent: relate.DependentDelete},
			},
		},
		{
			Name: "toy",
			Fields: []relate.FieldConfig{
				{Name: "owner_id", Type: schema.Integer, AllowNull: true},
				{Name: "owner_model", Type: schema.String, AllowNull: true},
				{Name: "name", Type: schema.String},
			},
		},
	}
}
