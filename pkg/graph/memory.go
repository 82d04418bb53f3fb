package graph

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/docgraph-io/docgraph/pkg/types"
)

// MemoryStore is an in-memory Store implementation. It backs tests and local
// single-process deployments where running a Neo4j server is not worth it.
//
// All operations are safe for concurrent use. PersistChunk is atomic under
// the store mutex.
type MemoryStore struct {
	mu sync.RWMutex

	documents map[string]*types.Document
	chunks    []*types.Chunk
	chunkByID map[string]*types.Chunk

	// entities keyed by types.Entity.Key(), with back-references to the
	// chunks that mention them (weak references, no ownership).
	entities map[string]*entityRecord

	// relationships keyed by types.Relationship.Key(); adjacency maps an
	// entity key to the relationship keys touching it.
	relationships map[string]*relationshipRecord
	adjacency     map[string][]string
}

type entityRecord struct {
	entity   types.Entity
	chunkIDs map[string]struct{}
}

type relationshipRecord struct {
	rel      types.Relationship
	chunkIDs map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents:     make(map[string]*types.Document),
		chunkByID:     make(map[string]*types.Chunk),
		entities:      make(map[string]*entityRecord),
		relationships: make(map[string]*relationshipRecord),
		adjacency:     make(map[string][]string),
	}
}

// Provider implements Store.
func (s *MemoryStore) Provider() Provider {
	return ProviderMemory
}

// CreateDocument implements DocumentStore.
func (s *MemoryStore) CreateDocument(ctx context.Context, doc *types.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *doc
	s.documents[doc.ID] = &copied
	return nil
}

// SetDocumentStatus implements DocumentStore.
func (s *MemoryStore) SetDocumentStatus(ctx context.Context, id string, status types.DocumentStatus, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return types.ErrDocumentNotFound
	}
	doc.Status = status
	doc.Error = message
	return nil
}

// GetDocument implements DocumentStore.
func (s *MemoryStore) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, types.ErrDocumentNotFound
	}
	copied := *doc
	return &copied, nil
}

// ListDocuments implements DocumentStore.
func (s *MemoryStore) ListDocuments(ctx context.Context) ([]*types.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*types.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		copied := *doc
		docs = append(docs, &copied)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.After(docs[j].UploadedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// PersistChunk implements ChunkStore. The chunk, its entity merges, and its
// relationships land together under one lock acquisition.
func (s *MemoryStore) PersistChunk(ctx context.Context, chunk *types.Chunk, entities []types.Entity, relationships []types.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[chunk.DocumentID]
	if !ok {
		return types.ErrDocumentNotFound
	}

	copied := *chunk
	s.chunks = append(s.chunks, &copied)
	s.chunkByID[copied.ID] = &copied
	doc.ChunkCount++

	for _, ent := range entities {
		key := ent.Key()
		rec, ok := s.entities[key]
		if !ok {
			rec = &entityRecord{
				entity:   types.Entity{Name: ent.Name, Type: ent.Type, Attributes: map[string]string{}},
				chunkIDs: make(map[string]struct{}),
			}
			s.entities[key] = rec
		}
		for k, v := range ent.Attributes {
			rec.entity.Attributes[k] = v
		}
		rec.chunkIDs[copied.ID] = struct{}{}
	}

	for _, rel := range relationships {
		key := rel.Key()
		rec, ok := s.relationships[key]
		if !ok {
			rec = &relationshipRecord{
				rel:      rel,
				chunkIDs: make(map[string]struct{}),
			}
			s.relationships[key] = rec
			for _, endpoint := range []string{strings.ToLower(rel.Source), strings.ToLower(rel.Target)} {
				s.adjacency[endpoint] = append(s.adjacency[endpoint], key)
			}
		}
		if rel.Confidence > rec.rel.Confidence {
			rec.rel.Confidence = rel.Confidence
		}
		rec.chunkIDs[copied.ID] = struct{}{}
	}

	return nil
}

// ChunksByScope implements ChunkStore.
func (s *MemoryStore) ChunksByScope(ctx context.Context, scope []string) ([]*types.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inScope := scopeSet(scope)
	var result []*types.Chunk
	for _, chunk := range s.chunks {
		if _, ok := inScope[chunk.DocumentID]; !ok {
			continue
		}
		copied := *chunk
		result = append(result, &copied)
	}
	return result, nil
}

// SearchChunksByTokens implements ChunkSearcher.
func (s *MemoryStore) SearchChunksByTokens(ctx context.Context, tokens []string, scope []string) ([]*types.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inScope := scopeSet(scope)
	var result []*types.Chunk
	for _, chunk := range s.chunks {
		if _, ok := inScope[chunk.DocumentID]; !ok {
			continue
		}
		text := strings.ToLower(chunk.Text)
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				copied := *chunk
				result = append(result, &copied)
				break
			}
		}
	}
	return result, nil
}

// SearchChunksBySubstring implements ChunkSearcher.
func (s *MemoryStore) SearchChunksBySubstring(ctx context.Context, query string, scope []string) ([]*types.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inScope := scopeSet(scope)
	needle := strings.ToLower(query)
	var result []*types.Chunk
	for _, chunk := range s.chunks {
		if _, ok := inScope[chunk.DocumentID]; !ok {
			continue
		}
		if strings.Contains(strings.ToLower(chunk.Text), needle) {
			copied := *chunk
			result = append(result, &copied)
		}
	}
	return result, nil
}

// TraverseEntityPaths implements Traverser. Seeds are entities whose name
// contains any term and which are mentioned by at least one in-scope chunk;
// traversal enumerates simple paths outward up to maxHops, never visiting an
// entity that has no in-scope mention.
func (s *MemoryStore) TraverseEntityPaths(ctx context.Context, terms []string, scope []string, maxHops int) ([]Path, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inScope := scopeSet(scope)

	var paths []Path
	for _, key := range s.sortedEntityKeys() {
		rec := s.entities[key]
		if !matchesAny(rec.entity.Name, terms) {
			continue
		}
		seedChunk := s.firstInScopeChunk(rec, inScope)
		if seedChunk == nil {
			continue
		}

		visited := map[string]bool{key: true}
		s.walk(rec, inScope, maxHops, visited,
			Path{Chunk: seedChunk, Entities: []types.Entity{rec.entity}}, &paths)
	}
	return paths, nil
}

// walk appends the current path and extends it one hop at a time.
func (s *MemoryStore) walk(from *entityRecord, inScope map[string]struct{}, hopsLeft int, visited map[string]bool, current Path, out *[]Path) {
	*out = append(*out, clonePath(current))
	if hopsLeft <= 0 {
		return
	}

	name := strings.ToLower(from.entity.Name)
	for _, relKey := range s.adjacency[name] {
		relRec := s.relationships[relKey]
		if !s.relationshipInScope(relRec, inScope) {
			continue
		}

		otherName := strings.ToLower(relRec.rel.Target)
		if otherName == name {
			otherName = strings.ToLower(relRec.rel.Source)
		}
		other := s.entityByName(otherName)
		if other == nil || visited[other.entity.Key()] {
			continue
		}
		if s.firstInScopeChunk(other, inScope) == nil {
			continue
		}

		visited[other.entity.Key()] = true
		next := clonePath(current)
		next.Entities = append(next.Entities, other.entity)
		next.Relationships = append(next.Relationships, relRec.rel)
		s.walk(other, inScope, hopsLeft-1, visited, next, out)
		delete(visited, other.entity.Key())
	}
}

func (s *MemoryStore) relationshipInScope(rec *relationshipRecord, inScope map[string]struct{}) bool {
	for chunkID := range rec.chunkIDs {
		if chunk, ok := s.chunkByID[chunkID]; ok {
			if _, ok := inScope[chunk.DocumentID]; ok {
				return true
			}
		}
	}
	return false
}

func (s *MemoryStore) firstInScopeChunk(rec *entityRecord, inScope map[string]struct{}) *types.Chunk {
	var best *types.Chunk
	for chunkID := range rec.chunkIDs {
		chunk, ok := s.chunkByID[chunkID]
		if !ok {
			continue
		}
		if _, ok := inScope[chunk.DocumentID]; !ok {
			continue
		}
		// Deterministic pick: lowest (documentID, index).
		if best == nil || chunk.DocumentID < best.DocumentID ||
			(chunk.DocumentID == best.DocumentID && chunk.Index < best.Index) {
			best = chunk
		}
	}
	if best == nil {
		return nil
	}
	copied := *best
	return &copied
}

func (s *MemoryStore) entityByName(lowerName string) *entityRecord {
	for _, rec := range s.entities {
		if strings.ToLower(rec.entity.Name) == lowerName {
			return rec
		}
	}
	return nil
}

func (s *MemoryStore) sortedEntityKeys() []string {
	keys := make([]string, 0, len(s.entities))
	for key := range s.entities {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// CreateIndices implements Admin. The memory store has nothing to index.
func (s *MemoryStore) CreateIndices(ctx context.Context) error {
	return nil
}

// Close implements Admin.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// EntityCount reports the number of distinct entities; used by tests to
// verify merge-by-identity semantics.
func (s *MemoryStore) EntityCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// EntityMentions reports the number of chunks referencing the entity with
// the given key, zero when the entity is unknown.
func (s *MemoryStore) EntityMentions(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.entities[key]
	if !ok {
		return 0
	}
	return len(rec.chunkIDs)
}

func scopeSet(scope []string) map[string]struct{} {
	set := make(map[string]struct{}, len(scope))
	for _, id := range scope {
		set[id] = struct{}{}
	}
	return set
}

func matchesAny(name string, terms []string) bool {
	lower := strings.ToLower(name)
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func clonePath(p Path) Path {
	return Path{
		Chunk:         p.Chunk,
		Entities:      append([]types.Entity{}, p.Entities...),
		Relationships: append([]types.Relationship{}, p.Relationships...),
	}
}

var _ Store = (*MemoryStore)(nil)
