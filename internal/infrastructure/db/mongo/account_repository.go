package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ait-forum/forum-api/internal/core/domain"
)

const accountsCollection = "accounts"

// AccountRepository implements ports.AccountRepository on MongoDB. The login
// doubles as the document _id, which gives uniqueness for free and makes
// every mutation a single atomic update on one document.
type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountsCollection)}
}

type mongoAccount struct {
	Login        string   `bson:"_id"`
	PasswordHash string   `bson:"password_hash"`
	FirstName    string   `bson:"first_name"`
	LastName     string   `bson:"last_name"`
	Roles        []string `bson:"roles"`
	CreatedAt    int64    `bson:"created_at"`
	UpdatedAt    int64    `bson:"updated_at"`
}

func toMongoAccount(a *domain.Account) mongoAccount {
	return mongoAccount{
		Login:        a.Login,
		PasswordHash: a.PasswordHash,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Roles:        a.Roles.Names(),
		CreatedAt:    a.CreatedAt.Unix(),
		UpdatedAt:    a.UpdatedAt.Unix(),
	}
}

func (m mongoAccount) toDomain() *domain.Account {
	roles := domain.NewRoleSet()
	for _, name := range m.Roles {
		if r, ok := domain.ParseRole(name); ok {
			roles.Add(r)
		}
	}
	return &domain.Account{
		Login:        m.Login,
		PasswordHash: m.PasswordHash,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Roles:        roles,
		CreatedAt:    unixToTime(m.CreatedAt),
		UpdatedAt:    unixToTime(m.UpdatedAt),
	}
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, toMongoAccount(account))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) FindByLogin(ctx context.Context, login string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ma mongoAccount
	if err := r.coll.FindOne(ctx, bson.M{"_id": login}).Decode(&ma); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return ma.toDomain(), nil
}

// UpdateProfile applies a partial $set update; nil fields are not touched.
func (r *AccountRepository) UpdateProfile(ctx context.Context, login string, firstName, lastName *string) (*domain.Account, error) {
	set := bson.M{"updated_at": time.Now().UTC().Unix()}
	if firstName != nil {
		set["first_name"] = *firstName
	}
	if lastName != nil {
		set["last_name"] = *lastName
	}
	return r.findOneAndUpdate(ctx, login, bson.M{"$set": set})
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, login, passwordHash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": login}, bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    time.Now().UTC().Unix(),
		},
	})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// AddRole inserts the role with $addToSet, so adding an already-held role is
// a no-op at the storage level and safe under concurrent retries.
func (r *AccountRepository) AddRole(ctx context.Context, login string, role domain.Role) (*domain.Account, error) {
	return r.findOneAndUpdate(ctx, login, bson.M{
		"$addToSet": bson.M{"roles": string(role)},
		"$set":      bson.M{"updated_at": time.Now().UTC().Unix()},
	})
}

// RemoveRole pulls the role; removing an absent role matches the document and
// changes nothing.
func (r *AccountRepository) RemoveRole(ctx context.Context, login string, role domain.Role) (*domain.Account, error) {
	return r.findOneAndUpdate(ctx, login, bson.M{
		"$pull": bson.M{"roles": string(role)},
		"$set":  bson.M{"updated_at": time.Now().UTC().Unix()},
	})
}

func (r *AccountRepository) Delete(ctx context.Context, login string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ma mongoAccount
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": login}).Decode(&ma); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("delete account: %w", err)
	}
	return ma.toDomain(), nil
}

func (r *AccountRepository) findOneAndUpdate(ctx context.Context, login string, update bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ma mongoAccount
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": login}, update, opts).Decode(&ma); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return ma.toDomain(), nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
