package milvus

import (
	"fmt"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/kuaixun/fusearch/internal/domain"
)

// entitySchema converts a domain schema into the client's schema type.
func entitySchema(s domain.Schema) *entity.Schema {
	out := entity.NewSchema().WithName(s.Name).WithDescription(s.Description)
	for _, f := range s.Fields {
		field := entity.NewField().WithName(f.Name)
		switch f.Type {
		case domain.FieldInt64:
			field = field.WithDataType(entity.FieldTypeInt64)
		case domain.FieldVarChar:
			field = field.WithDataType(entity.FieldTypeVarChar).WithMaxLength(int64(f.MaxLength))
		case domain.FieldSparseVector:
			field = field.WithDataType(entity.FieldTypeSparseVector)
		case domain.FieldFloatVector:
			field = field.WithDataType(entity.FieldTypeFloatVector).WithDim(int64(f.Dim))
		}
		if f.PrimaryKey {
			field = field.WithIsPrimaryKey(true).WithIsAutoID(f.AutoID)
		}
		out = out.WithField(field)
	}
	return out
}

// sparseEmbedding converts a domain sparse vector to the client's
// representation. Indices must already be sorted ascending.
func sparseEmbedding(v domain.SparseVector) (entity.SparseEmbedding, error) {
	emb, err := entity.NewSliceSparseEmbedding(v.Indices, v.Values)
	if err != nil {
		return nil, fmt.Errorf("convert sparse vector: %w", err)
	}
	return emb, nil
}

// hitsFromResultSet projects a raw result set into domain hits, preserving
// backend rank order. Scores are the backend's raw similarity at this stage;
// fusion replaces them downstream.
func hitsFromResultSet(rs milvusclient.ResultSet, outputFields []string) ([]domain.Hit, error) {
	hits := make([]domain.Hit, 0, rs.ResultCount)
	cols := make(map[string]column.Column, len(outputFields))
	for _, name := range outputFields {
		if col := rs.GetColumn(name); col != nil {
			cols[name] = col
		}
	}

	for i := 0; i < rs.ResultCount; i++ {
		pk, err := rs.IDs.GetAsInt64(i)
		if err != nil {
			return nil, fmt.Errorf("read pk at %d: %w", i, err)
		}
		fields := make(map[string]string, len(cols))
		for name, col := range cols {
			val, err := col.GetAsString(i)
			if err != nil {
				return nil, fmt.Errorf("read field %s at %d: %w", name, i, err)
			}
			fields[name] = val
		}
		hits = append(hits, domain.Hit{
			PK:       pk,
			Distance: float64(rs.Scores[i]),
			Fields:   fields,
		})
	}
	return hits, nil
}
