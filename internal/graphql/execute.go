package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"
	"go.uber.org/zap"
)

// Request is a GraphQL-over-HTTP request body.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// Response is a GraphQL result.
type Response struct {
	Data   map[string]interface{} `json:"data,omitempty"`
	Errors gqlerror.List          `json:"errors,omitempty"`
}

// Execute parses, validates and runs a single operation. Root fields run in
// document order; a failing field is reported in Errors and set to null.
func (r *Resolver) Execute(ctx context.Context, req Request) *Response {
	doc, errs := gqlparser.LoadQuery(Schema, req.Query)
	if len(errs) > 0 {
		for _, e := range errs {
			withCode(e, CodeValidation)
		}
		return &Response{Errors: errs}
	}

	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		return &Response{Errors: gqlerror.List{
			withCode(gqlerror.Errorf("operation %q not found", req.OperationName), CodeBadUserInput),
		}}
	}
	if op.Operation == ast.Subscription {
		return &Response{Errors: gqlerror.List{
			withCode(gqlerror.Errorf("subscriptions are not supported"), CodeBadUserInput),
		}}
	}

	vars, err := validator.VariableValues(Schema, op, req.Variables)
	if err != nil {
		var gqlErr *gqlerror.Error
		if !errors.As(err, &gqlErr) {
			gqlErr = gqlerror.Wrap(err)
		}
		return &Response{Errors: gqlerror.List{withCode(gqlErr, CodeBadUserInput)}}
	}

	resp := &Response{Data: make(map[string]interface{})}
	for _, field := range collectFields(op.SelectionSet, vars) {
		if field.Name == "__typename" {
			resp.Data[field.Alias] = field.ObjectDefinition.Name
			continue
		}

		value, err := r.resolveRoot(ctx, op.Operation, field, vars)
		if err != nil {
			resp.Data[field.Alias] = nil
			resp.Errors = append(resp.Errors, toGraphQLError(err, field))
			continue
		}
		resp.Data[field.Alias] = value
	}
	return resp
}

func (r *Resolver) resolveRoot(ctx context.Context, operation ast.Operation, field *ast.Field, vars map[string]interface{}) (interface{}, error) {
	start := time.Now()
	args := field.ArgumentMap(vars)

	var value interface{}
	var err error
	if operation == ast.Mutation {
		value, err = r.mutation(ctx, field.Name, args)
	} else {
		value, err = r.query(ctx, field.Name, args)
	}

	status := "success"
	if err != nil {
		status = "error"
		code := errorCode(err)
		r.Metrics.RecordError(upstreamFor(field.Name), code)
		r.Logger.Ctx(ctx).Warn("GraphQL field failed",
			zap.String("field", field.Name),
			zap.String("code", code),
			zap.Error(err),
		)
	}
	r.Metrics.RecordRequest(field.Name, carrierLabel(field.Name, args), status, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	generic, err := toGeneric(value)
	if err != nil {
		return nil, err
	}
	return project(generic, field.SelectionSet, vars), nil
}

// toGeneric turns a response model into maps, slices and scalars keyed by
// GraphQL field name.
func toGeneric(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// project keeps only the selected fields, under their aliases.
func project(v interface{}, set ast.SelectionSet, vars map[string]interface{}) interface{} {
	if len(set) == 0 || v == nil {
		return v
	}
	switch x := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, item := range x {
			out[i] = project(item, set, vars)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{})
		for _, f := range collectFields(set, vars) {
			if f.Name == "__typename" {
				out[f.Alias] = f.ObjectDefinition.Name
				continue
			}
			out[f.Alias] = project(x[f.Name], f.SelectionSet, vars)
		}
		return out
	}
	return v
}

// collectFields flattens fragments and applies @skip and @include.
func collectFields(set ast.SelectionSet, vars map[string]interface{}) []*ast.Field {
	var fields []*ast.Field
	seen := make(map[string]bool)
	var walk func(ast.SelectionSet)
	walk = func(set ast.SelectionSet) {
		for _, sel := range set {
			switch s := sel.(type) {
			case *ast.Field:
				if !included(s.Directives, vars) || seen[s.Alias] {
					continue
				}
				seen[s.Alias] = true
				fields = append(fields, s)
			case *ast.InlineFragment:
				if included(s.Directives, vars) {
					walk(s.SelectionSet)
				}
			case *ast.FragmentSpread:
				if included(s.Directives, vars) && s.Definition != nil {
					walk(s.Definition.SelectionSet)
				}
			}
		}
	}
	walk(set)
	return fields
}

func included(directives ast.DirectiveList, vars map[string]interface{}) bool {
	if d := directives.ForName("skip"); d != nil {
		if skip, _ := d.ArgumentMap(vars)["if"].(bool); skip {
			return false
		}
	}
	if d := directives.ForName("include"); d != nil {
		if include, _ := d.ArgumentMap(vars)["if"].(bool); !include {
			return false
		}
	}
	return true
}

func withCode(err *gqlerror.Error, code string) *gqlerror.Error {
	if err.Extensions == nil {
		err.Extensions = make(map[string]interface{})
	}
	err.Extensions["code"] = code
	return err
}
