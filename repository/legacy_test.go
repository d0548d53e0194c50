package repository

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	contentModels "elimu/models/content"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestScanLogsAndSkipsCorruptAggregates(t *testing.T) {
	db := newRepoTestDB(t)
	healthy := seedLegacyCourse(t, db)

	corrupt := contentModels.Course{
		Name:        "Corrupt Course",
		Code:        "XX000",
		LegacyUnits: datatypes.JSON([]byte(`{"not": "an array"`)),
		IsPublished: true,
	}
	require.NoError(t, db.Create(&corrupt).Error)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	scan, err := NewLegacyRepository(db).Scan(ContentFilter{})
	require.NoError(t, err, "one corrupt aggregate must not take down the scan")

	assert.Equal(t, 2, scan.CourseCount)
	require.NotEmpty(t, scan.Items)
	for _, item := range scan.Items {
		assert.Equal(t, healthy.ID, item.CourseID)
	}
	assert.Contains(t, buf.String(), fmt.Sprintf("decode legacy tree for course %d", corrupt.ID))
}
