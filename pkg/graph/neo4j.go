package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/docgraph-io/docgraph/pkg/types"
)

// Neo4jStore implements the Store interface for Neo4j databases.
//
// Schema: (:Document)-[:HAS_CHUNK]->(:Chunk)-[:MENTIONS]->(:Entity),
// (:Entity)-[:RELATES_TO {type}]->(:Entity). Relationship semantics live in
// the `type` property of a single fixed RELATES_TO label so that no
// caller-supplied string is ever spliced into query text.
type Neo4jStore struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore creates a new Neo4j-backed store.
func NewNeo4jStore(uri, username, password, database string) (*Neo4jStore, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	return &Neo4jStore{client: client, database: database}, nil
}

// Provider implements Store.
func (n *Neo4jStore) Provider() Provider {
	return ProviderNeo4j
}

func (n *Neo4jStore) session(ctx context.Context) neo4j.SessionWithContext {
	return n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
}

// CreateDocument implements DocumentStore.
func (n *Neo4jStore) CreateDocument(ctx context.Context, doc *types.Document) error {
	session := n.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			CREATE (d:Document {
				id: $id,
				name: $name,
				status: $status,
				error: '',
				chunk_count: 0,
				uploaded_at: $uploaded_at
			})
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"id":          doc.ID,
			"name":        doc.Name,
			"status":      string(doc.Status),
			"uploaded_at": doc.UploadedAt,
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// SetDocumentStatus implements DocumentStore.
func (n *Neo4jStore) SetDocumentStatus(ctx context.Context, id string, status types.DocumentStatus, message string) error {
	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (d:Document {id: $id})
			SET d.status = $status, d.error = $message
			RETURN d.id
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"id":      id,
			"status":  string(status),
			"message": message,
		})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return len(records), nil
	})
	if err != nil {
		return fmt.Errorf("failed to set document status: %w", err)
	}
	if result.(int) == 0 {
		return types.ErrDocumentNotFound
	}
	return nil
}

// GetDocument implements DocumentStore.
func (n *Neo4jStore) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (d:Document {id: $id})
			RETURN d
		`
		res, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	records := result.([]*db.Record)
	if len(records) == 0 {
		return nil, types.ErrDocumentNotFound
	}
	return documentFromRecord(records[0])
}

// ListDocuments implements DocumentStore.
func (n *Neo4jStore) ListDocuments(ctx context.Context) ([]*types.Document, error) {
	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (d:Document)
			RETURN d
			ORDER BY d.uploaded_at DESC, d.id
		`
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	records := result.([]*db.Record)
	docs := make([]*types.Document, 0, len(records))
	for _, record := range records {
		doc, err := documentFromRecord(record)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// PersistChunk implements ChunkStore. The chunk node, document edge,
// entity merges, and relationship edges run inside a single managed write
// transaction so a chunk lands all-or-nothing.
func (n *Neo4jStore) PersistChunk(ctx context.Context, chunk *types.Chunk, entities []types.Entity, relationships []types.Relationship) error {
	session := n.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		chunkQuery := `
			MATCH (d:Document {id: $document_id})
			CREATE (c:Chunk {
				id: $id,
				document_id: $document_id,
				index: $index,
				text: $text,
				embedding: $embedding,
				has_entities: $has_entities,
				created_at: $created_at
			})
			CREATE (d)-[:HAS_CHUNK]->(c)
			SET d.chunk_count = d.chunk_count + 1
			RETURN c.id
		`
		res, err := tx.Run(ctx, chunkQuery, map[string]any{
			"document_id":  chunk.DocumentID,
			"id":           chunk.ID,
			"index":        chunk.Index,
			"text":         chunk.Text,
			"embedding":    embeddingToParam(chunk.Embedding),
			"has_entities": chunk.HasEntities,
			"created_at":   chunk.CreatedAt,
		})
		if err != nil {
			return nil, err
		}
		if _, err := res.Single(ctx); err != nil {
			return nil, fmt.Errorf("document %s not found: %w", chunk.DocumentID, err)
		}

		entityQuery := `
			MATCH (c:Chunk {id: $chunk_id})
			MERGE (e:Entity {name_key: $name_key, type_key: $type_key})
			ON CREATE SET e.name = $name, e.type = $type
			SET e += $attributes
			MERGE (c)-[:MENTIONS]->(e)
		`
		for _, ent := range entities {
			attributes := map[string]any{}
			for k, v := range ent.Attributes {
				attributes["attr_"+k] = v
			}
			_, err := tx.Run(ctx, entityQuery, map[string]any{
				"chunk_id":   chunk.ID,
				"name_key":   strings.ToLower(ent.Name),
				"type_key":   strings.ToLower(ent.Type),
				"name":       ent.Name,
				"type":       ent.Type,
				"attributes": attributes,
			})
			if err != nil {
				return nil, err
			}
		}

		relationshipQuery := `
			MATCH (s:Entity {name_key: $source_key})
			MATCH (t:Entity {name_key: $target_key})
			MERGE (s)-[r:RELATES_TO {type: $type}]->(t)
			ON CREATE SET r.confidence = $confidence
			SET r.confidence = CASE WHEN $confidence > r.confidence THEN $confidence ELSE r.confidence END
			WITH r
			MATCH (c:Chunk {id: $chunk_id})
			SET r.chunk_ids = coalesce(r.chunk_ids, []) + c.id
		`
		for _, rel := range relationships {
			_, err := tx.Run(ctx, relationshipQuery, map[string]any{
				"source_key": strings.ToLower(rel.Source),
				"target_key": strings.ToLower(rel.Target),
				"type":       rel.Type,
				"confidence": rel.Confidence,
				"chunk_id":   chunk.ID,
			})
			if err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist chunk %d of document %s: %w", chunk.Index, chunk.DocumentID, err)
	}
	return nil
}

// ChunksByScope implements ChunkStore.
func (n *Neo4jStore) ChunksByScope(ctx context.Context, scope []string) ([]*types.Chunk, error) {
	if len(scope) == 0 {
		return nil, nil
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (d:Document)-[:HAS_CHUNK]->(c:Chunk)
			WHERE d.id IN $scope
			RETURN c
			ORDER BY c.document_id, c.index
		`
		res, err := tx.Run(ctx, query, map[string]any{"scope": scope})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chunks in scope: %w", err)
	}

	return chunksFromRecords(result.([]*db.Record))
}

// SearchChunksByTokens implements ChunkSearcher.
func (n *Neo4jStore) SearchChunksByTokens(ctx context.Context, tokens []string, scope []string) ([]*types.Chunk, error) {
	if len(scope) == 0 || len(tokens) == 0 {
		return nil, nil
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (d:Document)-[:HAS_CHUNK]->(c:Chunk)
			WHERE d.id IN $scope
			  AND any(token IN $tokens WHERE toLower(c.text) CONTAINS token)
			RETURN c
			ORDER BY c.document_id, c.index
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"scope":  scope,
			"tokens": tokens,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks by tokens: %w", err)
	}

	return chunksFromRecords(result.([]*db.Record))
}

// SearchChunksBySubstring implements ChunkSearcher.
func (n *Neo4jStore) SearchChunksBySubstring(ctx context.Context, query string, scope []string) ([]*types.Chunk, error) {
	if len(scope) == 0 {
		return nil, nil
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		cypher := `
			MATCH (d:Document)-[:HAS_CHUNK]->(c:Chunk)
			WHERE d.id IN $scope
			  AND toLower(c.text) CONTAINS toLower($query)
			RETURN c
			ORDER BY c.document_id, c.index
		`
		res, err := tx.Run(ctx, cypher, map[string]any{
			"scope": scope,
			"query": query,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks by substring: %w", err)
	}

	return chunksFromRecords(result.([]*db.Record))
}

// TraverseEntityPaths implements Traverser. The hop bound is an integer
// validated here; Cypher cannot parameterize variable-length bounds, so it
// is the only value formatted into the query text.
func (n *Neo4jStore) TraverseEntityPaths(ctx context.Context, terms []string, scope []string, maxHops int) ([]Path, error) {
	if len(scope) == 0 || len(terms) == 0 {
		return nil, nil
	}
	if maxHops < 0 {
		maxHops = 0
	}
	if maxHops > 5 {
		maxHops = 5
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := fmt.Sprintf(`
			MATCH (d:Document)-[:HAS_CHUNK]->(c:Chunk)-[:MENTIONS]->(seed:Entity)
			WHERE d.id IN $scope
			  AND any(term IN $terms WHERE seed.name_key CONTAINS term)
			WITH seed, c
			ORDER BY c.document_id, c.index
			WITH seed, head(collect(c)) AS chunk
			MATCH p = (seed)-[:RELATES_TO*0..%d]-(other:Entity)
			WHERE all(x IN nodes(p) WHERE EXISTS {
				MATCH (dx:Document)-[:HAS_CHUNK]->(:Chunk)-[:MENTIONS]->(x)
				WHERE dx.id IN $scope
			})
			RETURN chunk, [x IN nodes(p) | x] AS entities, [r IN relationships(p) | r] AS rels
			LIMIT $limit
		`, maxHops)
		res, err := tx.Run(ctx, query, map[string]any{
			"scope": scope,
			"terms": lowercaseAll(terms),
			"limit": 200,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to traverse entity paths: %w", err)
	}

	records := result.([]*db.Record)
	paths := make([]Path, 0, len(records))
	for _, record := range records {
		path, err := pathFromRecord(record)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// CreateIndices implements Admin.
func (n *Neo4jStore) CreateIndices(ctx context.Context) error {
	session := n.session(ctx)
	defer session.Close(ctx)

	statements := []string{
		`CREATE CONSTRAINT document_id IF NOT EXISTS FOR (d:Document) REQUIRE d.id IS UNIQUE`,
		`CREATE CONSTRAINT chunk_id IF NOT EXISTS FOR (c:Chunk) REQUIRE c.id IS UNIQUE`,
		`CREATE CONSTRAINT entity_identity IF NOT EXISTS FOR (e:Entity) REQUIRE (e.name_key, e.type_key) IS UNIQUE`,
		`CREATE INDEX chunk_document IF NOT EXISTS FOR (c:Chunk) ON (c.document_id)`,
		`CREATE INDEX entity_name IF NOT EXISTS FOR (e:Entity) ON (e.name_key)`,
	}
	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Close implements Admin.
func (n *Neo4jStore) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

// --- record parsing ---

func documentFromRecord(record *db.Record) (*types.Document, error) {
	value, found := record.Get("d")
	if !found {
		return nil, fmt.Errorf("record missing document field")
	}
	node, ok := value.(dbtype.Node)
	if !ok {
		return nil, fmt.Errorf("unexpected type for document: got %T", value)
	}

	doc := &types.Document{
		ID:     stringProp(node.Props, "id"),
		Name:   stringProp(node.Props, "name"),
		Status: types.DocumentStatus(stringProp(node.Props, "status")),
		Error:  stringProp(node.Props, "error"),
	}
	if count, ok := node.Props["chunk_count"].(int64); ok {
		doc.ChunkCount = int(count)
	}
	if uploaded, ok := node.Props["uploaded_at"].(time.Time); ok {
		doc.UploadedAt = uploaded
	}
	return doc, nil
}

func chunksFromRecords(records []*db.Record) ([]*types.Chunk, error) {
	chunks := make([]*types.Chunk, 0, len(records))
	for _, record := range records {
		value, found := record.Get("c")
		if !found {
			continue
		}
		node, ok := value.(dbtype.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected type for chunk: got %T", value)
		}
		chunks = append(chunks, chunkFromNode(node))
	}
	return chunks, nil
}

func chunkFromNode(node dbtype.Node) *types.Chunk {
	chunk := &types.Chunk{
		ID:         stringProp(node.Props, "id"),
		DocumentID: stringProp(node.Props, "document_id"),
		Text:       stringProp(node.Props, "text"),
	}
	if index, ok := node.Props["index"].(int64); ok {
		chunk.Index = int(index)
	}
	if has, ok := node.Props["has_entities"].(bool); ok {
		chunk.HasEntities = has
	}
	if created, ok := node.Props["created_at"].(time.Time); ok {
		chunk.CreatedAt = created
	}
	if raw, ok := node.Props["embedding"].([]any); ok {
		chunk.Embedding = make([]float32, 0, len(raw))
		for _, v := range raw {
			if f, ok := v.(float64); ok {
				chunk.Embedding = append(chunk.Embedding, float32(f))
			}
		}
	}
	return chunk
}

func entityFromNode(node dbtype.Node) types.Entity {
	entity := types.Entity{
		Name: stringProp(node.Props, "name"),
		Type: stringProp(node.Props, "type"),
	}
	for key, value := range node.Props {
		if !strings.HasPrefix(key, "attr_") {
			continue
		}
		if s, ok := value.(string); ok {
			if entity.Attributes == nil {
				entity.Attributes = map[string]string{}
			}
			entity.Attributes[strings.TrimPrefix(key, "attr_")] = s
		}
	}
	return entity
}

func pathFromRecord(record *db.Record) (Path, error) {
	var path Path

	chunkValue, found := record.Get("chunk")
	if !found {
		return path, fmt.Errorf("record missing chunk field")
	}
	chunkNode, ok := chunkValue.(dbtype.Node)
	if !ok {
		return path, fmt.Errorf("unexpected type for chunk: got %T", chunkValue)
	}
	path.Chunk = chunkFromNode(chunkNode)

	// nameByElementID resolves relationship endpoints. The traversal pattern
	// is undirected, so node order on the path cannot be trusted to match the
	// stored direction of an edge.
	nameByElementID := make(map[string]string)
	entitiesValue, _ := record.Get("entities")
	if rawEntities, ok := entitiesValue.([]any); ok {
		for _, raw := range rawEntities {
			if node, ok := raw.(dbtype.Node); ok {
				path.Entities = append(path.Entities, entityFromNode(node))
				nameByElementID[node.ElementId] = stringProp(node.Props, "name")
			}
		}
	}

	relsValue, _ := record.Get("rels")
	if rawRels, ok := relsValue.([]any); ok {
		for _, raw := range rawRels {
			rel, ok := raw.(dbtype.Relationship)
			if !ok {
				continue
			}
			relationship := types.Relationship{
				Source: nameByElementID[rel.StartElementId],
				Target: nameByElementID[rel.EndElementId],
				Type:   stringProp(rel.Props, "type"),
			}
			if confidence, ok := rel.Props["confidence"].(float64); ok {
				relationship.Confidence = confidence
			}
			path.Relationships = append(path.Relationships, relationship)
		}
	}

	return path, nil
}

func stringProp(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

func embeddingToParam(embedding []float32) []float64 {
	out := make([]float64, len(embedding))
	for i, v := range embedding {
		out[i] = float64(v)
	}
	return out
}

func lowercaseAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

var _ Store = (*Neo4jStore)(nil)
