package domain

import "fmt"

// FieldType enumerates the field types a collection schema may declare.
type FieldType string

const (
	FieldInt64        FieldType = "int64"
	FieldVarChar      FieldType = "varchar"
	FieldSparseVector FieldType = "sparse_vector"
	FieldFloatVector  FieldType = "float_vector"
)

// Reserved field names shared by every collection.
const (
	FieldNamePK     = "pk"
	FieldNameSparse = "sparse_vector"
	FieldNameDense  = "dense_vector"
)

// Field is one typed column of a collection schema.
type Field struct {
	Name       string
	Type       FieldType
	MaxLength  int // varchar only
	Dim        int // float_vector only
	PrimaryKey bool
	AutoID     bool
}

// Schema is a named set of typed fields: one auto-id int64 primary key,
// scalar metadata, exactly one sparse and one dense vector field. The dense
// dimension is fixed at creation time and equals the embedding model's
// declared output dimension.
type Schema struct {
	Name        string
	Description string
	Fields      []Field
}

// Validate enforces the structural invariants above.
func (s Schema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("schema: name is required")
	}
	var pk, sparse, dense int
	for _, f := range s.Fields {
		switch {
		case f.PrimaryKey:
			if f.Type != FieldInt64 || !f.AutoID {
				return fmt.Errorf("schema %s: primary key %q must be auto-id int64", s.Name, f.Name)
			}
			pk++
		case f.Type == FieldSparseVector:
			sparse++
		case f.Type == FieldFloatVector:
			if f.Dim <= 0 {
				return fmt.Errorf("schema %s: dense field %q needs a positive dim", s.Name, f.Name)
			}
			dense++
		case f.Type == FieldVarChar:
			if f.MaxLength <= 0 {
				return fmt.Errorf("schema %s: varchar field %q needs a positive max length", s.Name, f.Name)
			}
		}
	}
	if pk != 1 {
		return fmt.Errorf("schema %s: want exactly one primary key, got %d", s.Name, pk)
	}
	if sparse != 1 || dense != 1 {
		return fmt.Errorf("schema %s: want exactly one sparse and one dense vector field, got %d/%d",
			s.Name, sparse, dense)
	}
	return nil
}

// ScalarFields returns the metadata fields in declaration order, excluding
// the primary key and both vector fields. Their order fixes the column
// layout of inserts.
func (s Schema) ScalarFields() []Field {
	out := make([]Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.PrimaryKey || f.Type == FieldSparseVector || f.Type == FieldFloatVector {
			continue
		}
		out = append(out, f)
	}
	return out
}

// DenseDim returns the declared dense vector dimension.
func (s Schema) DenseDim() int {
	for _, f := range s.Fields {
		if f.Type == FieldFloatVector {
			return f.Dim
		}
	}
	return 0
}

// Concept collection field names.
const (
	ConceptFieldContent   = "content"
	ConceptFieldConcept   = "concept"
	ConceptFieldStockCode = "stock_code"
)

// Job-requirement collection field names.
const (
	JobFieldCity            = "city"
	JobFieldSalary          = "salary"
	JobFieldSeniority       = "seniority"
	JobFieldCompanyName     = "company_name"
	JobFieldCompanyIndustry = "company_industry"
	JobFieldCompanyInfo     = "company_info"
	JobFieldJobTitle        = "job_title"
	JobFieldJobDetail       = "job_detail"
)

func pkField() Field {
	return Field{Name: FieldNamePK, Type: FieldInt64, PrimaryKey: true, AutoID: true}
}

func vectorFields(dim int) []Field {
	return []Field{
		{Name: FieldNameSparse, Type: FieldSparseVector},
		{Name: FieldNameDense, Type: FieldFloatVector, Dim: dim},
	}
}

// ConceptSchema is the schema of the news-concept collection.
func ConceptSchema(name string, dim int) Schema {
	fields := []Field{
		pkField(),
		{Name: ConceptFieldContent, Type: FieldVarChar, MaxLength: 2048},
		{Name: ConceptFieldConcept, Type: FieldVarChar, MaxLength: 128},
		{Name: ConceptFieldStockCode, Type: FieldVarChar, MaxLength: 32},
	}
	return Schema{
		Name:        name,
		Description: "stock concept lookup",
		Fields:      append(fields, vectorFields(dim)...),
	}
}

// JobRequirementSchema is the schema of the job-posting collection.
func JobRequirementSchema(name string, dim int) Schema {
	fields := []Field{
		pkField(),
		{Name: JobFieldCity, Type: FieldVarChar, MaxLength: 16},
		{Name: JobFieldSalary, Type: FieldVarChar, MaxLength: 16},
		{Name: JobFieldSeniority, Type: FieldVarChar, MaxLength: 16},
		{Name: JobFieldCompanyName, Type: FieldVarChar, MaxLength: 32},
		{Name: JobFieldCompanyIndustry, Type: FieldVarChar, MaxLength: 64},
		{Name: JobFieldCompanyInfo, Type: FieldVarChar, MaxLength: 128},
		{Name: JobFieldJobTitle, Type: FieldVarChar, MaxLength: 128},
		{Name: JobFieldJobDetail, Type: FieldVarChar, MaxLength: 1024},
	}
	return Schema{
		Name:        name,
		Description: "job requirements",
		Fields:      append(fields, vectorFields(dim)...),
	}
}
