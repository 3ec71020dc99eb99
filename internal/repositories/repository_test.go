package repositories_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"onlyfails/internal/config"
	"onlyfails/internal/database"
	"onlyfails/internal/models"
	"onlyfails/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stores struct {
	users    repositories.UserRepository
	products repositories.ProductRepository
}

func memoryStores(t *testing.T) stores {
	users := repositories.NewMockUserRepository()
	return stores{users: users, products: repositories.NewMockProductRepository(users)}
}

func sqliteStores(t *testing.T) stores {
	db, err := database.Open(config.Database{Driver: config.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))
	return stores{
		users:    repositories.NewGORMUserRepository(db),
		products: repositories.NewGORMProductRepository(db),
	}
}

// mongoStores talks to a real server and only runs when MONGO_URI is set.
func mongoStores(t *testing.T) stores {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	client, db, err := database.OpenMongo(ctx, config.Database{
		Driver:        config.DriverMongo,
		DSN:           uri,
		MongoDatabase: "onlyfails_test_" + uuid.New().String()[:8],
		MaxOpenConns:  10,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	require.NoError(t, repositories.EnsureMongoIndexes(ctx, db))
	return stores{
		users:    repositories.NewMongoUserRepository(db),
		products: repositories.NewMongoProductRepository(db),
	}
}

var backends = []struct {
	name string
	open func(t *testing.T) stores
}{
	{"memory", memoryStores},
	{"sqlite", sqliteStores},
	{"mongo", mongoStores},
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s stores)) {
	for _, b := range backends {
		b := b
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.open(t))
		})
	}
}

func newUser(name string) *models.User {
	return &models.User{
		Username:     name,
		Email:        name + "@example.com",
		Password:     "hash",
		Role:         models.RoleUser,
		Votes:        []models.Vote{},
		RegisterDate: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func newProduct(name string) *models.FailedProduct {
	return &models.FailedProduct{
		Name:        name,
		Description: "A product that failed.",
		DesignedBy:  "Acme",
		ImageURL:    "https://example.com/" + name + ".png",
		Category:    "Gadgets",
		StartDate:   time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		FailureDate: time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC),
		Comments:    []models.Comment{},
		CreatedBy:   "admin-1",
	}
}

func TestUserRepository(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()

		user := newUser("alice")
		require.NoError(t, s.users.Create(ctx, user))
		require.NotEmpty(t, user.ID)

		byEmail, err := s.users.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		byName, err := s.users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)

		_, err = s.users.GetByEmailAndRole(ctx, "alice@example.com", models.RoleAdmin)
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		byRole, err := s.users.GetByEmailAndRole(ctx, "alice@example.com", models.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, user.ID, byRole.ID)

		_, err = s.users.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		dupEmail := newUser("alice2")
		dupEmail.Email = "alice@example.com"
		assert.ErrorIs(t, s.users.Create(ctx, dupEmail), repositories.ErrDuplicate)

		dupName := newUser("alice")
		dupName.Email = "other@example.com"
		assert.ErrorIs(t, s.users.Create(ctx, dupName), repositories.ErrDuplicate)

		require.NoError(t, s.users.SetBanned(ctx, user.ID, true))
		banned, err := s.users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, banned.IsBanned)

		// Repeating the same flag is not a missing user.
		require.NoError(t, s.users.SetBanned(ctx, user.ID, true))
		assert.ErrorIs(t, s.users.SetBanned(ctx, "ghost", true), repositories.ErrNotFound)
		assert.ErrorIs(t, s.users.SetBanned(ctx, "ghost", false), repositories.ErrNotFound)
	})
}

func TestProductRepository_CRUD(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()

		first := newProduct("zune")
		require.NoError(t, s.products.Create(ctx, first))
		require.NotEmpty(t, first.ID)
		time.Sleep(2 * time.Millisecond)
		second := newProduct("glass")
		require.NoError(t, s.products.Create(ctx, second))

		all, err := s.products.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, first.ID, all[0].ID)
		assert.Equal(t, second.ID, all[1].ID)

		got, err := s.products.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "zune", got.Name)
		assert.True(t, got.FailureDate.Equal(first.FailureDate))

		name := "zune hd"
		updated, err := s.products.Update(ctx, first.ID, models.FailedProductPatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "zune hd", updated.Name)
		assert.Equal(t, "Acme", updated.DesignedBy)
		assert.Equal(t, "admin-1", updated.CreatedBy)

		_, err = s.products.Update(ctx, "missing", models.FailedProductPatch{Name: &name})
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		require.NoError(t, s.products.Delete(ctx, first.ID))
		_, err = s.products.GetByID(ctx, first.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.ErrorIs(t, s.products.Delete(ctx, first.ID), repositories.ErrNotFound)
	})
}

func TestProductRepository_CastVote(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()

		user := newUser("bob")
		require.NoError(t, s.users.Create(ctx, user))
		product := newProduct("juicero")
		require.NoError(t, s.products.Create(ctx, product))

		res, err := s.products.CastVote(ctx, product.ID, user.ID, models.VoteDown)
		require.NoError(t, err)
		assert.Equal(t, models.VoteRecorded, res.Outcome)
		require.NotNil(t, res.Product)
		assert.Equal(t, 1, res.Product.Downvotes)
		assert.Equal(t, 0, res.Product.Upvotes)

		res, err = s.products.CastVote(ctx, product.ID, user.ID, models.VoteUp)
		require.NoError(t, err)
		assert.Equal(t, models.VoteAlreadyCast, res.Outcome)
		assert.Nil(t, res.Product)

		res, err = s.products.CastVote(ctx, "missing", user.ID, models.VoteUp)
		require.NoError(t, err)
		assert.Equal(t, models.VoteProductMissing, res.Outcome)

		res, err = s.products.CastVote(ctx, product.ID, "ghost", models.VoteUp)
		require.NoError(t, err)
		assert.Equal(t, models.VoteUserMissing, res.Outcome)

		stored, err := s.users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, stored.Votes, 1)
		assert.Equal(t, product.ID, stored.Votes[0].ProductID)
		assert.Equal(t, models.VoteDown, stored.Votes[0].VoteType)
		assert.True(t, stored.HasVotedOn(product.ID))

		got, err := s.products.GetByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Downvotes)
		assert.Equal(t, 0, got.Upvotes)
	})
}

func TestProductRepository_CastVote_Concurrent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()

		user := newUser("carol")
		require.NoError(t, s.users.Create(ctx, user))
		product := newProduct("segway")
		require.NoError(t, s.products.Create(ctx, product))

		const attempts = 20
		outcomes := make([]models.VoteOutcome, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				res, err := s.products.CastVote(ctx, product.ID, user.ID, models.VoteUp)
				if assert.NoError(t, err) {
					outcomes[i] = res.Outcome
				}
			}(i)
		}
		wg.Wait()

		recorded := 0
		for _, o := range outcomes {
			if o == models.VoteRecorded {
				recorded++
			} else {
				assert.Equal(t, models.VoteAlreadyCast, o)
			}
		}
		assert.Equal(t, 1, recorded)

		got, err := s.products.GetByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Upvotes)

		stored, err := s.users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Votes, 1)
	})
}

func TestProductRepository_AddComment(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()

		product := newProduct("newton")
		require.NoError(t, s.products.Create(ctx, product))

		base := time.Now().UTC().Truncate(time.Millisecond)
		for i, text := range []string{"first", "second"} {
			updated, err := s.products.AddComment(ctx, product.ID, models.Comment{
				UserID: "user-1",
				Text:   text,
				Date:   base.Add(time.Duration(i) * time.Second),
			})
			require.NoError(t, err)
			require.Len(t, updated.Comments, i+1)
			assert.Equal(t, text, updated.Comments[i].Text)
		}

		_, err := s.products.AddComment(ctx, "missing", models.Comment{UserID: "user-1", Text: "x", Date: base})
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		got, err := s.products.GetByID(ctx, product.ID)
		require.NoError(t, err)
		require.Len(t, got.Comments, 2)
		assert.Equal(t, "first", got.Comments[0].Text)
		assert.Equal(t, "user-1", got.Comments[1].UserID)

		// Comments go with the product.
		require.NoError(t, s.products.Delete(ctx, product.ID))
		again := newProduct("newton")
		again.ID = product.ID
		require.NoError(t, s.products.Create(ctx, again))
		got, err = s.products.GetByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Comments)
	})
}
