package vectorstore

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const collectionName = "passages"

// QdrantIndex implements Index using Qdrant. All tenants share one
// collection; isolation is enforced with a mandatory tenant_id payload
// filter on every query.
type QdrantIndex struct {
	client *qdrant.Client
}

// NewQdrantIndex creates a new Qdrant index client.
// url should be in format "host:port" (e.g., "localhost:6334").
func NewQdrantIndex(ctx context.Context, url string) (*QdrantIndex, error) {
	host, portStr, err := net.SplitHostPort(url)
	if err != nil {
		// If no port specified, assume default
		host = url
		portStr = "6334"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant url: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantIndex{client: client}, nil
}

// Close closes the Qdrant client connection.
func (s *QdrantIndex) Close() error {
	return s.client.Close()
}

// EnsureCollection creates the shared passages collection if missing.
func (s *QdrantIndex) EnsureCollection(ctx context.Context, dimension int) error {
	exists, err := s.client.CollectionExists(ctx, collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// pointID derives a deterministic point UUID from the tenant-scoped chunk ID,
// so re-ingesting a document overwrites its previous points. Qdrant point IDs
// must be UUIDs; the caller-facing chunk ID travels in the payload.
func pointID(tenantID, chunkID string) *qdrant.PointId {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(tenantID+"/"+chunkID))
	return qdrant.NewIDUUID(id.String())
}

// Upsert inserts or updates chunks, tagging each point with its tenant.
func (s *QdrantIndex) Upsert(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		payload := map[string]*qdrant.Value{
			"chunk_id":        qdrant.NewValueString(chunk.ID),
			"tenant_id":       qdrant.NewValueString(chunk.TenantID),
			"document_id":     qdrant.NewValueString(chunk.DocumentID),
			"content":         qdrant.NewValueString(chunk.Content),
			"allowed_roles":   qdrant.NewValueString(strings.Join(chunk.AllowedRoles, ",")),
			"confidentiality": qdrant.NewValueString(chunk.Confidentiality),
			"source_type":     qdrant.NewValueString(chunk.SourceType),
		}
		for k, v := range chunk.Metadata {
			payload[k] = qdrant.NewValueString(v)
		}

		points[i] = &qdrant.PointStruct{
			Id:      pointID(chunk.TenantID, chunk.ID),
			Payload: payload,
			Vectors: qdrant.NewVectors(chunk.Vector...),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// Query performs tenant-scoped similarity search.
func (s *QdrantIndex) Query(ctx context.Context, tenantID string, vector []float32, topK int) ([]Candidate, error) {
	response, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(vector...),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("tenant_id", tenantID),
			},
		},
		Limit:       qdrant.PtrOf(uint64(topK)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]Candidate, 0, len(response))
	for _, point := range response {
		// Qdrant reports cosine similarity; the Index contract carries distance.
		distance := 1 - point.Score
		if distance < 0 {
			distance = 0
		}

		cand := Candidate{
			ID:       point.Id.GetUuid(),
			Distance: distance,
		}

		if payload := point.Payload; payload != nil {
			if v, ok := payload["chunk_id"]; ok && v.GetStringValue() != "" {
				cand.ID = v.GetStringValue()
			}
			if v, ok := payload["document_id"]; ok {
				cand.DocumentID = v.GetStringValue()
			}
			if v, ok := payload["content"]; ok {
				cand.Content = v.GetStringValue()
			}
			if v, ok := payload["allowed_roles"]; ok {
				cand.AllowedRoles = splitRoles(v.GetStringValue())
			}
			if v, ok := payload["confidentiality"]; ok {
				cand.Confidentiality = v.GetStringValue()
			}
			if v, ok := payload["source_type"]; ok {
				cand.SourceType = v.GetStringValue()
			}
		}

		results = append(results, cand)
	}

	return results, nil
}

// DeleteDocument removes all of a document's chunks within a tenant.
func (s *QdrantIndex) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewMatch("tenant_id", tenantID),
						qdrant.NewMatch("document_id", documentID),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete by document ID: %w", err)
	}

	return nil
}

// splitRoles parses the comma-separated allowed_roles payload value.
func splitRoles(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			roles = append(roles, p)
		}
	}
	return roles
}

// Ensure QdrantIndex implements Index
var _ Index = (*QdrantIndex)(nil)
