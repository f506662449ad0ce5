package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipa/internal/models"
	"tipa/internal/repository"
	"tipa/internal/testutil"
)

func TestResourceService(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	svc := NewResourceService(repository.NewResourceRepository(db))

	_, err := svc.Publish(ctx, 1, PublishResourceInput{Kind: models.ResourceLink, Title: "Standards"})
	assertAppError(t, err, models.CodeValidation)
	_, err = svc.Publish(ctx, 1, PublishResourceInput{Kind: "video", Title: "x"})
	assertAppError(t, err, models.CodeValidation)
	_, err = svc.Publish(ctx, 1, PublishResourceInput{Kind: models.ResourceLink, Title: "x", URL: "not a url"})
	assertAppError(t, err, models.CodeValidation)

	link, err := svc.Publish(ctx, 1, PublishResourceInput{Kind: models.ResourceLink, Title: "Standards", URL: "https://example.org/std"})
	require.NoError(t, err)
	_, err = svc.Publish(ctx, 1, PublishResourceInput{Kind: models.ResourceAnnouncement, Title: "AGM notice", Body: "Friday", Pinned: true})
	require.NoError(t, err)

	all, err := svc.List(ctx, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "AGM notice", all[0].Title)

	_, err = svc.List(ctx, "video", 10, 0)
	assertAppError(t, err, models.CodeValidation)

	require.NoError(t, svc.Delete(ctx, link.ID))
	assertAppError(t, svc.Delete(ctx, link.ID), models.CodeNotFound)
}
