package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"girder/internal/graph"
	"girder/internal/store"
)

// Neo4jRepository implements store.Repository using Neo4j.
type Neo4jRepository struct {
	driver neo4j.DriverWithContext
}

// NewNeo4j creates a Neo4j-backed repository.
func NewNeo4j(ctx context.Context, uri, username, password string) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jRepository{driver: driver}, nil
}

func (r *Neo4jRepository) StoreGraph(ctx context.Context, g *graph.Graph) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, mod := range g.Modules() {
			_, err := tx.Run(ctx,
				"MERGE (m:Module {id: $id}) SET m.display_name = $name, m.layer = $layer",
				map[string]any{"id": mod.ID, "name": mod.DisplayName, "layer": mod.Layer})
			if err != nil {
				return nil, fmt.Errorf("store module %s: %w", mod.ID, err)
			}
		}
		for _, e := range g.Edges() {
			_, err := tx.Run(ctx,
				"MERGE (a:Module {id: $from}) "+
					"MERGE (b:Module {id: $to}) "+
					"MERGE (a)-[r:DEPENDS_ON]->(b) SET r.kind = $kind",
				map[string]any{"from": e.From, "to": e.To, "kind": e.Kind})
			if err != nil {
				return nil, fmt.Errorf("store edge %s -> %s: %w", e.From, e.To, err)
			}
		}
		return nil, nil
	})
	return err
}

func (r *Neo4jRepository) Dependents(ctx context.Context, id string) ([]string, error) {
	return r.queryNeighbors(ctx,
		"MATCH (m:Module)-[:DEPENDS_ON]->(:Module {id: $id}) RETURN m.id ORDER BY m.id", id)
}

func (r *Neo4jRepository) Dependencies(ctx context.Context, id string) ([]string, error) {
	return r.queryNeighbors(ctx,
		"MATCH (:Module {id: $id})-[:DEPENDS_ON]->(m:Module) RETURN m.id ORDER BY m.id", id)
}

func (r *Neo4jRepository) queryNeighbors(ctx context.Context, query, id string) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		var ids []string
		for records.Next(ctx) {
			n, _ := records.Record().Get("m.id")
			ids = append(ids, n.(string))
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (r *Neo4jRepository) Ping(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

var _ store.Repository = (*Neo4jRepository)(nil)
