package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakeforge-labs/cascade/pkg/core"
)

// columnByName indexes an artifact's columns for assertion convenience.
func columnByName(t *testing.T, e *Engine, artifactID string) map[string]*core.Column {
	t.Helper()
	columns, err := e.Store().GetArtifactColumns(artifactID)
	require.NoError(t, err)
	byName := make(map[string]*core.Column, len(columns))
	for _, c := range columns {
		byName[c.Name] = c
	}
	return byName
}

// A business-side dimension cascading main into gold: keys keep their
// relative order shifted by 100, attributes renumber from 100, the blank
// business name falls back to the technical name, and gold technical fields
// arrive at the tail.
func TestCascade_DimensionIntoGold(t *testing.T) {
	e := newTestEngine(t)
	seedMedallion(t, e)

	saveArtifact(t, e, &core.Artifact{ID: "dim_customer", Name: "dim_customer", StageID: "s2", Relation: core.RelationMain})
	insertColumns(t, e,
		&core.Column{ID: 1, StageID: "s2", ArtifactID: "dim_customer", Name: "customer_sk", Order: 10, Group: core.GroupSurrogateKey, DataType: "BIGINT"},
		&core.Column{ID: 2, StageID: "s2", ArtifactID: "dim_customer", Name: "customer_bk", Order: 20, Group: core.GroupBusinessKey, DataType: "STRING"},
		&core.Column{ID: 3, StageID: "s2", ArtifactID: "dim_customer", Name: "customer_name", Order: 100, Group: core.GroupAttribute, DataType: "STRING"},
	)
	saveArtifact(t, e, &core.Artifact{ID: "customer_dim_gold", Name: "customer_dim_gold", StageID: "s3", Relation: core.RelationMain, Upstream: "dim_customer"})

	report, err := e.CascadeOne(context.Background(), "customer_dim_gold")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Empty(t, report.Errors)

	byName := columnByName(t, e, "customer_dim_gold")

	require.Contains(t, byName, "customer_sk")
	assert.Equal(t, 110, byName["customer_sk"].Order)
	assert.Equal(t, core.GroupSurrogateKey, byName["customer_sk"].Group)

	require.Contains(t, byName, "customer_bk")
	assert.Equal(t, 120, byName["customer_bk"].Order)

	// Blank business name falls back to the technical name; the attribute
	// bucket renumbers from 100.
	require.Contains(t, byName, "customer_name")
	assert.Equal(t, 100, byName["customer_name"].Order)
	assert.Equal(t, core.GroupAttribute, byName["customer_name"].Group)

	// Gold-stage technical fields land once, after everything else.
	require.Contains(t, byName, "__gold_loadDate")
	assert.Equal(t, core.GroupTechnical, byName["__gold_loadDate"].Group)
	assert.GreaterOrEqual(t, byName["__gold_loadDate"].Order, 1000)
	assert.Contains(t, byName, "__gold_lastRefresh")
}

// Two upstreams sharing a column name: the second occurrence is skipped
// during the merge, no cleanup pass needed.
func TestCascade_DuplicateNameAcrossUpstreams(t *testing.T) {
	e := newTestEngine(t)
	seedMedallion(t, e)

	saveArtifact(t, e, &core.Artifact{ID: "order_lines_silver", Name: "order_lines_silver", StageID: "s2", Relation: core.RelationMain})
	saveArtifact(t, e, &core.Artifact{ID: "returns_silver", Name: "returns_silver", StageID: "s2", Relation: core.RelationMain})
	insertColumns(t, e,
		&core.Column{ID: 1, StageID: "s2", ArtifactID: "order_lines_silver", Name: "order_id", Order: 10, Group: core.GroupBusinessKey, DataType: "BIGINT"},
		&core.Column{ID: 2, StageID: "s2", ArtifactID: "order_lines_silver", Name: "line_total", Order: 100, Group: core.GroupMeasure, DataType: "decimal(18,2)"},
		&core.Column{ID: 3, StageID: "s2", ArtifactID: "returns_silver", Name: "order_id", Order: 10, Group: core.GroupBusinessKey, DataType: "BIGINT"},
		&core.Column{ID: 4, StageID: "s2", ArtifactID: "returns_silver", Name: "return_reason", Order: 100, Group: core.GroupAttribute, DataType: "STRING"},
	)
	saveArtifact(t, e, &core.Artifact{ID: "fact_sales_gold", Name: "fact_sales_gold", StageID: "s3", Relation: core.RelationMain, Upstream: "order_lines_silver,returns_silver"})

	_, err := e.CascadeOne(context.Background(), "fact_sales_gold")
	require.NoError(t, err)

	columns, err := e.Store().GetArtifactColumns("fact_sales_gold")
	require.NoError(t, err)

	orderIDCount := 0
	for _, c := range columns {
		if c.Name == "order_id" {
			orderIDCount++
		}
	}
	assert.Equal(t, 1, orderIDCount, "duplicate from the second upstream must be skipped")

	byName := columnByName(t, e, "fact_sales_gold")
	assert.Contains(t, byName, "line_total")
	assert.Contains(t, byName, "return_reason")
}

// get_key propagates only the key columns of the dimension.
func TestCascade_GetKeyFromDimension(t *testing.T) {
	e := newTestEngine(t)
	seedMedallion(t, e)

	saveArtifact(t, e, &core.Artifact{ID: "dim_product", Name: "dim_product", StageID: "s3", Relation: core.RelationMain})
	insertColumns(t, e,
		&core.Column{ID: 1, StageID: "s3", ArtifactID: "dim_product", Name: "product_sk", Order: 10, Group: core.GroupSurrogateKey, DataType: "BIGINT"},
		&core.Column{ID: 2, StageID: "s3", ArtifactID: "dim_product", Name: "product_bk", Order: 20, Group: core.GroupBusinessKey, DataType: "STRING"},
		&core.Column{ID: 3, StageID: "s3", ArtifactID: "dim_product", Name: "product_name", Order: 100, Group: core.GroupAttribute, DataType: "STRING"},
	)
	saveArtifact(t, e, &core.Artifact{ID: "fact_sales_gold", Name: "fact_sales_gold", StageID: "s3", Relation: core.RelationGetKey, Upstream: "dim_product"})

	_, err := e.CascadeOne(context.Background(), "fact_sales_gold")
	require.NoError(t, err)

	byName := columnByName(t, e, "fact_sales_gold")
	assert.Contains(t, byName, "product_sk")
	assert.Contains(t, byName, "product_bk")
	assert.NotContains(t, byName, "product_name")
	// get_key never injects technical fields.
	assert.NotContains(t, byName, "__gold_loadDate")
}

// Business-side type conversion through the mapping table; unmapped types
// pass through with a warning.
func TestCascade_TypeMapping(t *testing.T) {
	e := newTestEngine(t)
	saveStage(t, e, &core.Stage{ID: "s2", Name: "silver", Platform: "platformA", Side: core.SideBusiness})
	saveStage(t, e, &core.Stage{ID: "s3", Name: "gold", Platform: "platformB", Side: core.SideBusiness})
	require.NoError(t, e.Store().SaveTypeMapping(&core.TypeMapping{
		SourcePlatform: "platformA", SourceType: "nvarchar(50)",
		TargetPlatform: "platformB", TargetType: "string",
	}))

	saveArtifact(t, e, &core.Artifact{ID: "up", Name: "customer_silver", StageID: "s2", Relation: core.RelationMain})
	insertColumns(t, e,
		&core.Column{ID: 1, StageID: "s2", ArtifactID: "up", Name: "customer_name", Order: 100, Group: core.GroupAttribute, DataType: "nvarchar(50)"},
		&core.Column{ID: 2, StageID: "s2", ArtifactID: "up", Name: "customer_shape", Order: 101, Group: core.GroupAttribute, DataType: "geometry"},
	)
	saveArtifact(t, e, &core.Artifact{ID: "down", Name: "customer_gold", StageID: "s3", Relation: core.RelationMain, Upstream: "up"})

	report, err := e.CascadeOne(context.Background(), "down")
	require.NoError(t, err)

	byName := columnByName(t, e, "down")
	assert.Equal(t, "string", byName["customer_name"].DataType)
	assert.Equal(t, "geometry", byName["customer_shape"].DataType)

	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "customer_shape") {
			found = true
		}
	}
	assert.True(t, found, "expected a pass-through warning, got %v", report.Warnings)
}

// Repeated cascades add nothing new; cleanup afterwards is a no-op.
func TestCascade_Idempotence(t *testing.T) {
	e := newTestEngine(t)
	seedMedallion(t, e)

	saveArtifact(t, e, &core.Artifact{ID: "dim_customer", Name: "dim_customer", StageID: "s2", Relation: core.RelationMain})
	insertColumns(t, e,
		&core.Column{ID: 1, StageID: "s2", ArtifactID: "dim_customer", Name: "customer_sk", Order: 10, Group: core.GroupSurrogateKey, DataType: "BIGINT"},
		&core.Column{ID: 2, StageID: "s2", ArtifactID: "dim_customer", Name: "customer_name", Order: 100, Group: core.GroupAttribute, DataType: "STRING"},
	)
	saveArtifact(t, e, &core.Artifact{ID: "gold", Name: "customer_gold", StageID: "s3", Relation: core.RelationMain, Upstream: "dim_customer"})

	_, err := e.CascadeOne(context.Background(), "gold")
	require.NoError(t, err)
	first, err := e.Store().GetArtifactColumns("gold")
	require.NoError(t, err)

	// Second run: every candidate name is already present.
	_, err = e.CascadeOne(context.Background(), "gold")
	require.NoError(t, err)
	removed, err := e.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	second, err := e.Store().GetArtifactColumns("gold")
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.Equal(t, first[i].Order, second[i].Order)
	}
}

// Ids stay globally unique across artifacts and runs; resolved names are
// never empty; group ordering holds within each artifact.
func TestCascade_StoreWideProperties(t *testing.T) {
	e := newTestEngine(t)
	seedMedallion(t, e)

	saveArtifact(t, e, &core.Artifact{ID: "dim_customer", Name: "dim_customer", StageID: "s2", Relation: core.RelationMain})
	saveArtifact(t, e, &core.Artifact{ID: "orders_silver", Name: "orders_silver", StageID: "s2", Relation: core.RelationMain})
	insertColumns(t, e,
		&core.Column{ID: 1, StageID: "s2", ArtifactID: "dim_customer", Name: "customer_sk", Order: 10, Group: core.GroupSurrogateKey, DataType: "BIGINT"},
		&core.Column{ID: 2, StageID: "s2", ArtifactID: "dim_customer", Name: "customer_name", Order: 100, Group: core.GroupAttribute, DataType: "STRING"},
		&core.Column{ID: 3, StageID: "s2", ArtifactID: "orders_silver", Name: "order_bk", Order: 10, Group: core.GroupBusinessKey, DataType: "STRING"},
		&core.Column{ID: 4, StageID: "s2", ArtifactID: "orders_silver", Name: "order_total", Order: 100, Group: core.GroupMeasure, DataType: "decimal(18,2)"},
	)
	saveArtifact(t, e, &core.Artifact{ID: "f_orders", Name: "f_orders", StageID: "s3", Relation: core.RelationMain, Upstream: "orders_silver"})
	saveArtifact(t, e, &core.Artifact{ID: "gold_customer", Name: "dim_customer_gold", StageID: "s3", Relation: core.RelationMain, Upstream: "dim_customer"})

	_, err := e.CascadeAll(context.Background())
	require.NoError(t, err)

	all, err := e.Store().ListColumns()
	require.NoError(t, err)
	require.NotEmpty(t, all)

	seenIDs := make(map[int64]bool)
	perArtifact := make(map[string][]*core.Column)
	for _, c := range all {
		assert.False(t, seenIDs[c.ID], "column id %d assigned twice", c.ID)
		seenIDs[c.ID] = true
		assert.NotEmpty(t, c.ResolvedName())
		perArtifact[c.ArtifactID] = append(perArtifact[c.ArtifactID], c)
	}

	// The rendering order keeps the group hierarchy: keys first, then
	// attributes and measures, technical fields last. Within the key and
	// technical blocks the declared order stays ascending.
	for artifactID, columns := range perArtifact {
		core.SortColumns(columns)
		lastRank, lastOrder := -1, -1
		for _, c := range columns {
			rank := c.Group.Rank()
			require.GreaterOrEqual(t, rank, lastRank,
				"artifact %s: column %s out of group order", artifactID, c.Name)
			if rank > lastRank {
				lastRank, lastOrder = rank, -1
			}
			assert.GreaterOrEqual(t, c.Order, lastOrder,
				"artifact %s: column %s out of declared order", artifactID, c.Name)
			lastOrder = c.Order
		}
	}
}

// Lookup honors the configured limit.
func TestCascade_LookupLimit(t *testing.T) {
	e, err := New(Config{StorePath: ":memory:", LookupLimit: 2})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	seedMedallion(t, e)

	saveArtifact(t, e, &core.Artifact{ID: "dim_customer", Name: "dim_customer", StageID: "s3", Relation: core.RelationMain})
	insertColumns(t, e,
		&core.Column{ID: 1, StageID: "s3", ArtifactID: "dim_customer", Name: "customer_sk", Order: 10, Group: core.GroupSurrogateKey, DataType: "BIGINT"},
		&core.Column{ID: 2, StageID: "s3", ArtifactID: "dim_customer", Name: "customer_bk", Order: 20, Group: core.GroupBusinessKey, DataType: "STRING"},
		&core.Column{ID: 3, StageID: "s3", ArtifactID: "dim_customer", Name: "customer_name", Order: 100, Group: core.GroupAttribute, DataType: "STRING"},
		&core.Column{ID: 4, StageID: "s3", ArtifactID: "dim_customer", Name: "customer_city", Order: 101, Group: core.GroupAttribute, DataType: "STRING"},
	)
	saveArtifact(t, e, &core.Artifact{ID: "f_orders", Name: "f_orders", StageID: "s3", Relation: core.RelationLookup, Upstream: "dim_customer"})

	_, err = e.CascadeOne(context.Background(), "f_orders")
	require.NoError(t, err)

	columns, err := e.Store().GetArtifactColumns("f_orders")
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, "customer_sk", columns[0].Name)
	assert.Equal(t, "customer_bk", columns[1].Name)
}

// The attribute counter continues from the artifact's current maximum so a
// later merge never collides with earlier attribute orders.
func TestCascade_AttributeCounterContinues(t *testing.T) {
	e := newTestEngine(t)
	seedMedallion(t, e)

	saveArtifact(t, e, &core.Artifact{ID: "up1", Name: "customers_silver", StageID: "s2", Relation: core.RelationMain})
	saveArtifact(t, e, &core.Artifact{ID: "up2", Name: "addresses_silver", StageID: "s2", Relation: core.RelationMain})
	insertColumns(t, e,
		&core.Column{ID: 1, StageID: "s2", ArtifactID: "up1", Name: "customer_name", Order: 100, Group: core.GroupAttribute, DataType: "STRING"},
		&core.Column{ID: 2, StageID: "s2", ArtifactID: "up2", Name: "street", Order: 100, Group: core.GroupAttribute, DataType: "STRING"},
		&core.Column{ID: 3, StageID: "s2", ArtifactID: "up2", Name: "city", Order: 101, Group: core.GroupAttribute, DataType: "STRING"},
	)
	saveArtifact(t, e, &core.Artifact{ID: "gold", Name: "customer_gold", StageID: "s3", Relation: core.RelationMain, Upstream: "up1"})

	_, err := e.CascadeOne(context.Background(), "gold")
	require.NoError(t, err)

	// Point the artifact at a second upstream and cascade again.
	saveArtifact(t, e, &core.Artifact{ID: "gold", Name: "customer_gold", StageID: "s3", Relation: core.RelationMain, Upstream: "up2"})
	_, err = e.CascadeOne(context.Background(), "gold")
	require.NoError(t, err)

	byName := columnByName(t, e, "gold")
	assert.Equal(t, 100, byName["customer_name"].Order)
	assert.Equal(t, 101, byName["street"].Order)
	assert.Equal(t, 102, byName["city"].Order)
}
