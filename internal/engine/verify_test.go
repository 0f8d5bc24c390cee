package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Verify_Clean(t *testing.T) {
	e := setupProducts(t)

	report, err := e.Verify(context.Background(), "Product")
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, "Product", report.Collection)
	assert.Equal(t, 5, report.Documents)
	// five prices plus nine discounts
	assert.Equal(t, 14, report.Decimals)
	assert.NotNil(t, report.Problems)
}

func TestEngine_Verify_DetectsCorruption(t *testing.T) {
	ctx := context.Background()
	e := setupProducts(t)
	db := e.store.DB()

	// p1's order key claims 949 while its raw text still says 98.993.
	_, err := db.ExecContext(ctx,
		`UPDATE documents SET body = json_set(body, '$.price.order', '25000003949.') WHERE id = 'p1'`)
	require.NoError(t, err)

	// p3's second discount has unparseable raw text.
	_, err = db.ExecContext(ctx,
		`UPDATE documents SET body = json_set(body, '$.discounts[1].raw', 'five') WHERE id = 'p3'`)
	require.NoError(t, err)

	report, err := e.Verify(ctx, "Product")
	require.NoError(t, err)
	assert.False(t, report.OK())
	require.Len(t, report.Problems, 2)

	assert.Equal(t, "p1", report.Problems[0].ID)
	assert.Equal(t, "price", report.Problems[0].Field)
	assert.Contains(t, report.Problems[0].Message, "order key does not match")

	assert.Equal(t, "p3", report.Problems[1].ID)
	assert.Equal(t, "discounts[1]", report.Problems[1].Field)
}

func TestEngine_Verify_WrongShape(t *testing.T) {
	ctx := context.Background()
	e := setupProducts(t)

	_, err := e.store.DB().ExecContext(ctx,
		`UPDATE documents SET body = json_set(body, '$.discounts', 'none') WHERE id = 'p0'`)
	require.NoError(t, err)

	report, err := e.Verify(ctx, "Product")
	require.NoError(t, err)
	require.Len(t, report.Problems, 1)
	assert.Equal(t, "discounts", report.Problems[0].Field)
	assert.Contains(t, report.Problems[0].Message, "expected array")
}

func TestEngine_Verify_UnknownCollection(t *testing.T) {
	e := setupTestEngine(t)

	_, err := e.Verify(context.Background(), "Missing")
	assert.True(t, IsUnknownCollection(err))
}
