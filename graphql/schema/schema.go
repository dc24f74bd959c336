package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mikeydub/go-gallery-layout/graphql/model"
	"github.com/mikeydub/go-gallery-layout/service/persist"
	"github.com/mikeydub/go-gallery-layout/validate"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/validator"
)

const (
	CollectionLayoutOperation       = "CollectionLayout"
	UpdateCollectionLayoutOperation = "UpdateCollectionLayout"
)

//go:embed schema.graphql
var schemaSDL string

//go:embed operations.graphql
var operationsDoc string

var layoutValidator = validate.New()

var (
	loadOnce   sync.Once
	schema     *ast.Schema
	operations *ast.QueryDocument
	loadErr    error
)

// Schema returns the parsed layout schema
func Schema() (*ast.Schema, error) {
	load()
	return schema, loadErr
}

func load() {
	loadOnce.Do(func() {
		schema, loadErr = gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSDL})
		if loadErr != nil {
			return
		}

		doc, errs := gqlparser.LoadQuery(schema, operationsDoc)
		if len(errs) > 0 {
			loadErr = fmt.Errorf("failed to load operations: %w", errs)
			return
		}
		operations = doc
	})
}

// ValidateLayoutInput coerces the variables of an UpdateCollectionLayout mutation and returns the
// collection and layout they carry. Null or missing members and malformed layouts are rejected.
func ValidateLayoutInput(vars map[string]any) (persist.DBID, model.CollectionLayoutInput, error) {
	coerced, err := coerceVariables(UpdateCollectionLayoutOperation, vars)
	if err != nil {
		return "", model.CollectionLayoutInput{}, err
	}

	b, err := json.Marshal(coerced["layout"])
	if err != nil {
		return "", model.CollectionLayoutInput{}, fmt.Errorf("failed to marshal layout: %w", err)
	}

	var input model.CollectionLayoutInput
	if err := json.Unmarshal(b, &input); err != nil {
		return "", model.CollectionLayoutInput{}, fmt.Errorf("invalid layout: %w", err)
	}

	if err := layoutValidator.Struct(input.ToTokenLayout()); err != nil {
		return "", model.CollectionLayoutInput{}, fmt.Errorf("invalid layout: %w", err)
	}

	return persist.DBID(fmt.Sprint(coerced["collectionId"])), input, nil
}

// ValidateLayoutQuery coerces the variables of a CollectionLayout query
func ValidateLayoutQuery(vars map[string]any) (persist.DBID, error) {
	coerced, err := coerceVariables(CollectionLayoutOperation, vars)
	if err != nil {
		return "", err
	}
	return persist.DBID(fmt.Sprint(coerced["collectionId"])), nil
}

func coerceVariables(operationName string, vars map[string]any) (map[string]any, error) {
	load()
	if loadErr != nil {
		return nil, loadErr
	}

	op := operations.Operations.ForName(operationName)
	if op == nil {
		return nil, fmt.Errorf("unknown operation: %s", operationName)
	}

	coerced, err := validator.VariableValues(schema, op, vars)
	if err != nil {
		return nil, fmt.Errorf("invalid %s variables: %w", operationName, err)
	}

	return coerced, nil
}
