package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qart_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	productsCollection = "products"
	cartsCollection    = "carts"

	walletWriteAttempts = 5
)

// MongoStore regroupe les collections users, products et carts d'une même base
type MongoStore struct {
	client   *mongo.Client
	users    *mongo.Collection
	products *mongo.Collection
	carts    *mongo.Collection
}

func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{
		client:   client,
		users:    db.Collection(usersCollection),
		products: db.Collection(productsCollection),
		carts:    db.Collection(cartsCollection),
	}
}

// --- Users ---

func (m *MongoStore) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := m.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (m *MongoStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id})
}

func (m *MongoStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"email": email})
}

func (m *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := m.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (m *MongoStore) UpdateAddress(ctx context.Context, id, address string) error {
	res, err := m.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"address": address, "updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to update address: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CreditWallet relit le solde puis écrit la somme arrondie, conditionnée par l'ancienne valeur
func (m *MongoStore) CreditWallet(ctx context.Context, id string, amount float64) (float64, error) {
	for attempt := 0; attempt < walletWriteAttempts; attempt++ {
		user, err := m.findUser(ctx, bson.M{"_id": id})
		if err != nil {
			return 0, err
		}
		balance := models.AddMoney(user.WalletMoney, amount)
		res, err := m.users.UpdateOne(ctx,
			bson.M{"_id": id, "walletMoney": user.WalletMoney},
			bson.M{"$set": bson.M{"walletMoney": balance, "updatedAt": time.Now()}})
		if err != nil {
			return 0, fmt.Errorf("failed to credit wallet: %w", err)
		}
		if res.MatchedCount == 1 {
			return balance, nil
		}
	}
	return 0, fmt.Errorf("failed to credit wallet: balance changed %d times", walletWriteAttempts)
}

// --- Products ---

// MongoProducts expose la collection products comme ProductRepository
type MongoProducts struct {
	store *MongoStore
}

func (m *MongoStore) Products() *MongoProducts {
	return &MongoProducts{store: m}
}

func (p *MongoProducts) List(ctx context.Context) ([]models.Product, error) {
	cur, err := p.store.products.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cur.Close(ctx)

	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (p *MongoProducts) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := p.store.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (p *MongoProducts) Upsert(ctx context.Context, product models.Product) error {
	_, err := p.store.products.ReplaceOne(ctx, bson.M{"_id": product.ID}, product, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

// --- Carts ---

// MongoCarts expose la collection carts comme CartRepository
type MongoCarts struct {
	store *MongoStore
}

func (m *MongoStore) Carts() *MongoCarts {
	return &MongoCarts{store: m}
}

func (c *MongoCarts) FindByEmail(ctx context.Context, email string) (*models.Cart, error) {
	var cart models.Cart
	if err := c.store.carts.FindOne(ctx, bson.M{"email": email}).Decode(&cart); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart.CartItems == nil {
		cart.CartItems = []models.CartItem{}
	}
	return &cart, nil
}

func (c *MongoCarts) Create(ctx context.Context, cart *models.Cart) error {
	now := time.Now()
	cart.CreatedAt = now
	cart.UpdatedAt = now
	cart.Version = 0
	if cart.CartItems == nil {
		cart.CartItems = []models.CartItem{}
	}

	if _, err := c.store.carts.InsertOne(ctx, cart); err != nil {
		// un autre appel a créé le panier de cet email entre notre lecture et l'insertion
		if mongo.IsDuplicateKeyError(err) {
			return ErrVersionConflict
		}
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

func (c *MongoCarts) Save(ctx context.Context, cart *models.Cart) error {
	now := time.Now()
	if cart.CartItems == nil {
		cart.CartItems = []models.CartItem{}
	}

	filter := bson.M{"_id": cart.ID, "version": cart.Version}
	update := bson.M{
		"$set": bson.M{
			"cartItems":     cart.CartItems,
			"paymentOption": cart.PaymentOption,
			"updatedAt":     now,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := c.store.carts.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}

	cart.Version++
	cart.UpdatedAt = now
	return nil
}

// --- Checkout ---

// CommitCheckout vide le panier puis débite le wallet dans une transaction (replica set requis)
func (m *MongoStore) CommitCheckout(ctx context.Context, cart *models.Cart, userID string, total float64) (float64, error) {
	session, err := m.client.StartSession()
	if err != nil {
		return 0, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	now := time.Now()
	balance, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := m.carts.UpdateOne(sc,
			bson.M{"_id": cart.ID, "version": cart.Version},
			bson.M{
				"$set": bson.M{"cartItems": []models.CartItem{}, "updatedAt": now},
				"$inc": bson.M{"version": 1},
			})
		if err != nil {
			return nil, fmt.Errorf("failed to clear cart: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, ErrVersionConflict
		}

		user, err := m.findUser(sc, bson.M{"_id": userID})
		if err != nil {
			return nil, err
		}
		if !models.CoversMoney(user.WalletMoney, total) {
			return nil, ErrInsufficientFunds
		}
		balance := models.SubMoney(user.WalletMoney, total)
		res, err = m.users.UpdateOne(sc,
			bson.M{"_id": userID, "walletMoney": user.WalletMoney},
			bson.M{"$set": bson.M{"walletMoney": balance, "updatedAt": now}})
		if err != nil {
			return nil, fmt.Errorf("failed to debit wallet: %w", err)
		}
		if res.MatchedCount == 0 {
			// solde modifié entre la lecture et l'écriture : le service rejoue le checkout
			return nil, ErrVersionConflict
		}
		return balance, nil
	})
	if err != nil {
		return 0, err
	}

	cart.CartItems = []models.CartItem{}
	cart.Version++
	cart.UpdatedAt = now
	return balance.(float64), nil
}
