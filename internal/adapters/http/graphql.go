package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/coords/internal/core/domain"
)

func projectionMap(info domain.ProjectionInfo, selected, allowed bool) map[string]interface{} {
	return map[string]interface{}{
		"id":                 info.ID,
		"name":               info.Name,
		"short_name_key":     info.ShortNameKey,
		"long_name_key":      info.LongNameKey,
		"explanation_key":    info.ExplanationKey,
		"privacy_policy_key": info.PrivacyPolicyKey,
		"requires_network":   info.RequiresNetwork,
		"selected":           selected,
		"allowed":            allowed,
	}
}

func readoutMap(r *domain.Readout) map[string]interface{} {
	data := make([]map[string]interface{}, 0, len(r.Data))
	for _, d := range r.Data {
		data = append(data, map[string]interface{}{
			"label":        d.Label,
			"value":        d.Value,
			"value_is_key": d.ValueIsKey,
			"priority":     d.Priority,
			"alignment":    d.Alignment.String(),
			"error":        d.Error,
		})
	}
	return map[string]interface{}{
		"projection": r.Projection.String(),
		"latitude":   r.Point.Latitude().String(),
		"longitude":  r.Point.Longitude().String(),
		"updated_at": r.UpdatedAt.Format(time.RFC3339),
		"data":       data,
	}
}

func locationMap(v LocationView) map[string]interface{} {
	m := map[string]interface{}{
		"state":        v.State,
		"last_updated": v.LastUpdated,
	}
	if v.Point != nil {
		m["latitude"] = v.Point.Latitude().String()
		m["longitude"] = v.Point.Longitude().String()
	}
	if v.AgeSeconds != nil {
		m["age_seconds"] = int(*v.AgeSeconds)
	}
	return m
}

func optionalFloat(args map[string]interface{}, name string) *float64 {
	if v, ok := args[name].(float64); ok {
		return &v
	}
	return nil
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	projectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Projection",
		Fields: graphql.Fields{
			"id":                 &graphql.Field{Type: graphql.String},
			"name":               &graphql.Field{Type: graphql.String},
			"short_name_key":     &graphql.Field{Type: graphql.String},
			"long_name_key":      &graphql.Field{Type: graphql.String},
			"explanation_key":    &graphql.Field{Type: graphql.String},
			"privacy_policy_key": &graphql.Field{Type: graphql.String},
			"requires_network":   &graphql.Field{Type: graphql.Boolean},
			"selected":           &graphql.Field{Type: graphql.Boolean},
			"allowed":            &graphql.Field{Type: graphql.Boolean},
		},
	})

	datumType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LabelledDatum",
		Fields: graphql.Fields{
			"label":        &graphql.Field{Type: graphql.String},
			"value":        &graphql.Field{Type: graphql.String},
			"value_is_key": &graphql.Field{Type: graphql.Boolean},
			"priority":     &graphql.Field{Type: graphql.Int},
			"alignment":    &graphql.Field{Type: graphql.String},
			"error":        &graphql.Field{Type: graphql.String},
		},
	})

	readoutType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Readout",
		Fields: graphql.Fields{
			"projection": &graphql.Field{Type: graphql.String},
			"latitude":   &graphql.Field{Type: graphql.String},
			"longitude":  &graphql.Field{Type: graphql.String},
			"updated_at": &graphql.Field{Type: graphql.String},
			"data":       &graphql.Field{Type: graphql.NewList(datumType)},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"state":        &graphql.Field{Type: graphql.String},
			"latitude":     &graphql.Field{Type: graphql.String},
			"longitude":    &graphql.Field{Type: graphql.String},
			"last_updated": &graphql.Field{Type: graphql.String},
			"age_seconds":  &graphql.Field{Type: graphql.Int},
		},
	})

	listProjections := func(p graphql.ResolveParams) (interface{}, error) {
		selected := deps.Session.Projection()
		var out []map[string]interface{}
		for _, proj := range domain.AllProjections() {
			allowed, err := deps.Consent.Allowed(p.Context, proj)
			if err != nil {
				return nil, err
			}
			out = append(out, projectionMap(proj.Info(), proj == selected, allowed))
		}
		return out, nil
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"projections": &graphql.Field{
				Type:        graphql.NewList(projectionType),
				Description: "All supported projections",
				Resolve:     listProjections,
			},
			"location": &graphql.Field{
				Type:        locationType,
				Description: "The current fix",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return locationMap(locationView(deps)), nil
				},
			},
			"readout": &graphql.Field{
				Type:        readoutType,
				Description: "The current fix rendered in a projection (default: the selected one)",
				Args: graphql.FieldConfigArgument{
					"projection": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					proj := deps.Session.Projection()
					if s, ok := p.Args["projection"].(string); ok && s != "" {
						parsed, err := domain.ParseProjection(s)
						if err != nil {
							return nil, err
						}
						proj = parsed
					}
					r, err := deps.Readouts.Render(p.Context, proj)
					if err != nil {
						return nil, err
					}
					return readoutMap(r), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"selectProjection": &graphql.Field{
				Type: projectionType,
				Args: graphql.FieldConfigArgument{
					"projection": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					proj, err := domain.ParseProjection(p.Args["projection"].(string))
					if err != nil {
						return nil, err
					}
					if _, err := deps.Session.SetProjection(proj); err != nil {
						return nil, err
					}
					allowed, err := deps.Consent.Allowed(p.Context, proj)
					if err != nil {
						return nil, err
					}
					return projectionMap(proj.Info(), true, allowed), nil
				},
			},
			"setConsent": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"projection": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"allowed":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Boolean)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					proj, err := domain.ParseProjection(p.Args["projection"].(string))
					if err != nil {
						return nil, err
					}
					allowed := p.Args["allowed"].(bool)
					if allowed {
						err = deps.Consent.Grant(p.Context, proj)
					} else {
						err = deps.Consent.Revoke(p.Context, proj)
					}
					if err != nil {
						return nil, err
					}
					return allowed, nil
				},
			},
			"submitFix": &graphql.Field{
				Type: locationType,
				Args: graphql.FieldConfigArgument{
					"latitude":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"longitude": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"accuracy":  &graphql.ArgumentConfig{Type: graphql.Float},
					"altitude":  &graphql.ArgumentConfig{Type: graphql.Float},
					"bearing":   &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					fix := domain.RawFix{
						Latitude:  p.Args["latitude"].(float64),
						Longitude: p.Args["longitude"].(float64),
						Accuracy:  optionalFloat(p.Args, "accuracy"),
						Altitude:  optionalFloat(p.Args, "altitude"),
						Bearing:   optionalFloat(p.Args, "bearing"),
					}
					if _, err := deps.Readouts.IngestFix(p.Context, fix); err != nil {
						return nil, err
					}
					return locationMap(locationView(deps)), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
