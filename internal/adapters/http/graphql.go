package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/riskmap/internal/core/domain"
)

// stringer resolves a field of a named string type such as domain.SyncState.
func stringer(get func(src interface{}) (string, bool)) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		if s, ok := get(p.Source); ok {
			return s, nil
		}
		return nil, nil
	}
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Viewport",
		Fields: graphql.Fields{
			"center": &graphql.Field{Type: coordinateType},
			"zoom":   &graphql.Field{Type: graphql.Int},
		},
	})

	bandType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RadiusBand",
		Fields: graphql.Fields{
			"center":        &graphql.Field{Type: coordinateType},
			"radius_meters": &graphql.Field{Type: graphql.Float},
			"tier": &graphql.Field{
				Type: graphql.String,
				Resolve: stringer(func(src interface{}) (string, bool) {
					b, ok := src.(domain.RadiusBand)
					return string(b.Tier), ok
				}),
			},
		},
	})

	badgeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ClusterBadge",
		Fields: graphql.Fields{
			"position":   &graphql.Field{Type: coordinateType},
			"count":      &graphql.Field{Type: graphql.Int},
			"fill_color": &graphql.Field{Type: graphql.String},
			"scale":      &graphql.Field{Type: graphql.Float},
		},
	})

	selectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Selection",
		Fields: graphql.Fields{
			"state": &graphql.Field{
				Type: graphql.String,
				Resolve: stringer(func(src interface{}) (string, bool) {
					s, ok := src.(domain.SelectionState)
					return string(s.State), ok
				}),
			},
			"selected":     &graphql.Field{Type: coordinateType},
			"bands":        &graphql.Field{Type: graphql.NewList(bandType)},
			"risk_points":  &graphql.Field{Type: graphql.Int},
			"live_markers": &graphql.Field{Type: graphql.Int},
			"sequence": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, _ := p.Source.(domain.SelectionState)
					return int(s.Sequence), nil
				},
			},
		},
	})

	sceneType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Scene",
		Fields: graphql.Fields{
			"session_id": &graphql.Field{Type: graphql.String},
			"prompt":     &graphql.Field{Type: graphql.String},
			"selection":  &graphql.Field{Type: selectionType},
			"updated_at": &graphql.Field{Type: graphql.DateTime},
			"viewport": &graphql.Field{
				Type: viewportType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, _ := p.Source.(domain.Scene)
					return s.Map.Viewport, nil
				},
			},
			"badges": &graphql.Field{
				Type: graphql.NewList(badgeType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, _ := p.Source.(domain.Scene)
					return s.Map.Badges, nil
				},
			},
			"visible_markers": &graphql.Field{
				Type:        graphql.Int,
				Description: "Risk markers not absorbed into a cluster badge",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, _ := p.Source.(domain.Scene)
					n := 0
					for _, m := range s.Map.Markers {
						if m.Visible {
							n++
						}
					}
					return n, nil
				},
			},
		},
	})

	candidateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Candidate",
		Fields: graphql.Fields{
			"place_id":    &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
		},
	})

	checkpointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CheckpointEvent",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					e, _ := p.Source.(domain.CheckpointEvent)
					return int(e.ID), nil
				},
			},
			"timestamp":     &graphql.Field{Type: graphql.String},
			"checkpoint_id": &graphql.Field{Type: graphql.String},
			"vehicle_id":    &graphql.Field{Type: graphql.String},
			"latitude":      &graphql.Field{Type: graphql.Float},
			"longitude":     &graphql.Field{Type: graphql.Float},
			"is_suspicious": &graphql.Field{Type: graphql.Int},
			"probability":   &graphql.Field{Type: graphql.Float},
			"risk_score":    &graphql.Field{Type: graphql.Int},
		},
	})

	statusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CheckpointStatus",
		Fields: graphql.Fields{
			"ok":            &graphql.Field{Type: graphql.Boolean},
			"model_ready":   &graphql.Field{Type: graphql.Boolean},
			"model_path":    &graphql.Field{Type: graphql.String},
			"events_cached": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"scene": &graphql.Field{
				Type:        sceneType,
				Description: "Current scene of a map session",
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sessions.Scene(p.Args["session"].(string))
				},
			},
			"autocomplete": &graphql.Field{
				Type:        graphql.NewList(candidateType),
				Description: "Place candidates for a free-text query",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := p.Args["query"].(string)
					if len(q) > maxQueryLength {
						return nil, fmt.Errorf("query too long (max %d characters)", maxQueryLength)
					}
					return suggestPlaces(p.Context, deps, q)
				},
			},
			"checkpointStatus": &graphql.Field{
				Type:        statusType,
				Description: "Risk model readiness and stored event count",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Checkpoints.Status(p.Context)
				},
			},
			"checkpoints": &graphql.Field{
				Type:        graphql.NewList(checkpointType),
				Description: "Scored checkpoint events, newest first",
				Args: graphql.FieldConfigArgument{
					"only_suspicious": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: true},
					"min_risk":        &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":           &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 500},
					"offset":          &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Checkpoints.Events(p.Context, domain.EventFilter{
						OnlySuspicious: p.Args["only_suspicious"].(bool),
						MinRisk:        p.Args["min_risk"].(int),
						Limit:          p.Args["limit"].(int),
						Offset:         p.Args["offset"].(int),
					})
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"select": &graphql.Field{
				Type:        sceneType,
				Description: "Select a coordinate on a session's map",
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					c := domain.Coordinate{Lat: p.Args["lat"].(float64), Lng: p.Args["lng"].(float64)}
					return deps.Sessions.Select(p.Context, p.Args["session"].(string), c)
				},
			},
			"zoom": &graphql.Field{
				Type:        sceneType,
				Description: "Change a session's zoom level",
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"zoom":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sessions.Zoom(p.Context, p.Args["session"].(string), p.Args["zoom"].(int))
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
