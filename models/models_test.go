package models

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxonomyURLs(t *testing.T) {
	tag := Tag{Name: "파이썬", Slug: "파이썬"}
	assert.Equal(t, "/blog/tag/파이썬", tag.AbsoluteURL())
	assert.Equal(t, "파이썬", tag.String())

	cat := Category{Name: "Programming", Slug: "programming"}
	assert.Equal(t, "/blog/category/programming", cat.AbsoluteURL())
	assert.Equal(t, "Programming", cat.String())
	assert.Equal(t, "Categories", CategoryPluralName)
}

func TestTaxonomyNormalize(t *testing.T) {
	tag := Tag{Name: "  Hello World "}
	require.NoError(t, tag.Normalize())
	assert.Equal(t, "Hello World", tag.Name)
	assert.Equal(t, "hello-world", tag.Slug)

	bad := Tag{Name: "x", Slug: "not a slug"}
	assert.ErrorIs(t, bad.Normalize(), ErrInvalidSlug)

	reserved := Category{Name: "None", Slug: NoCategorySlug}
	assert.ErrorIs(t, reserved.Normalize(), ErrInvalidSlug)

	derived := Category{Name: "문화 예술"}
	require.NoError(t, derived.Normalize())
	assert.Equal(t, "문화-예술", derived.Slug)
}

func TestPostAccessors(t *testing.T) {
	p := Post{ID: 4, Title: "Hello", Author: &User{Username: "alice"}}
	assert.Equal(t, "/blog/4", p.AbsoluteURL())
	assert.Equal(t, "[4] Hello :: alice", p.String())

	p.Author = nil
	assert.Equal(t, "[4] Hello :: None", p.String())
}

func TestPostUploadedFile(t *testing.T) {
	p := Post{}
	_, err := p.UploadedFileName()
	assert.ErrorIs(t, err, ErrNoFileUploaded)
	_, err = p.UploadedFileExtension()
	assert.ErrorIs(t, err, ErrNoFileUploaded)

	p.FileUpload = "blog/files/2024/05/01/report.final.pdf"
	name, err := p.UploadedFileName()
	require.NoError(t, err)
	assert.Equal(t, "report.final.pdf", name)
	ext, err := p.UploadedFileExtension()
	require.NoError(t, err)
	assert.Equal(t, "pdf", ext)

	for _, stored := range []string{"blog/files/2024/05/01/archive", "blog/files/2024/05/01/trailing."} {
		p.FileUpload = stored
		_, err = p.UploadedFileExtension()
		assert.ErrorIs(t, err, ErrNoFileExtension, stored)
	}
}

func TestPostRenderContentHTML(t *testing.T) {
	p := Post{Content: "**bold** <script>x</script>"}
	out, err := p.RenderContentHTML()
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "<script>")
}

func TestPostSummary(t *testing.T) {
	p := Post{Content: "안녕하세요 여러분"}
	assert.Equal(t, "안녕하...", p.Summary(3))
	assert.Equal(t, "안녕하세요 여러분", p.Summary(100))

	p.HookText = "hook"
	assert.Equal(t, "hook", p.Summary(3))
}

func TestCommentAccessors(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Comment{ID: 9, PostID: 4, Author: &User{Username: "bob"}, Content: "nice", CreatedAt: created, ModifiedAt: created}
	assert.Equal(t, "/blog/4#comment-9", c.AbsoluteURL())
	assert.Equal(t, "bob::nice", c.String())
	assert.False(t, c.IsModified())

	c.ModifiedAt = created.Add(time.Minute)
	assert.True(t, c.IsModified())
}

type fakeLookup map[uint]*SocialAccount

func (f fakeLookup) FirstSocialAccount(_ context.Context, userID uint) (*SocialAccount, error) {
	return f[userID], nil
}

type failingLookup struct{}

func (failingLookup) FirstSocialAccount(context.Context, uint) (*SocialAccount, error) {
	return nil, errors.New("boom")
}

func TestAvatarResolver(t *testing.T) {
	ctx := context.Background()
	r := NewAvatarResolver(fakeLookup{
		1: {UserID: 1, Provider: "github", AvatarURL: "https://avatars.example/1.png"},
	})

	a, err := r.Resolve(ctx, &User{ID: 1, Email: "one@example.com"})
	require.NoError(t, err)
	assert.Equal(t, SocialAvatar{Provider: "github", Picture: "https://avatars.example/1.png"}, a)

	a, err = r.Resolve(ctx, &User{ID: 2, Email: "two@example.com"})
	require.NoError(t, err)
	assert.IsType(t, EmailAvatar{}, a)
	assert.Equal(t, "https://doitdjango.com/avatar/id/2569/88f1d2892a7cfe94/svg/two@example.com", a.URL())

	_, err = r.Resolve(ctx, nil)
	assert.ErrorIs(t, err, ErrNoAuthor)

	_, err = NewAvatarResolver(failingLookup{}).Resolve(ctx, &User{ID: 1})
	assert.Error(t, err)
}

func TestAuthorAvatarURL(t *testing.T) {
	ctx := context.Background()
	r := NewAvatarResolver(fakeLookup{})

	p := Post{Author: &User{ID: 3, Email: "a@b.c"}}
	url, err := p.AuthorAvatarURL(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, FallbackAvatarURL("a@b.c"), url)

	p.Author = nil
	_, err = p.AuthorAvatarURL(ctx, r)
	assert.ErrorIs(t, err, ErrNoAuthor)

	c := Comment{Author: &User{ID: 3, Email: "a@b.c"}}
	url, err = c.AuthorAvatarURL(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, FallbackAvatarURL("a@b.c"), url)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "Alice@example.com", NormalizeEmail("  Alice@Example.COM "))
	assert.Equal(t, "a.b@c@mail.org", NormalizeEmail("a.b@c@MAIL.org"))
	assert.Equal(t, "no-at-sign", NormalizeEmail("no-at-sign"))

	u := User{Username: " alice ", Email: "Alice@Example.com"}
	require.NoError(t, u.BeforeSave(nil))
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "Alice@example.com", u.Email)
	assert.Equal(t, "https://doitdjango.com/avatar/id/2569/88f1d2892a7cfe94/svg/Alice@example.com", FallbackAvatarURL(u.Email))
}
