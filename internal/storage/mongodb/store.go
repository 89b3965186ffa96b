// Package mongodb is the document backend built on the official MongoDB driver.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Ensure interface conformance
var _ storage.Store = (*Store)(nil)

const (
	transactionsCollection = "transactions"
	budgetsCollection      = "budgets"
	goalsCollection        = "savings_goals"
	usersCollection        = "users"
)

type Store struct {
	client       *mongo.Client
	transactions *mongo.Collection
	budgets      *mongo.Collection
	goals        *mongo.Collection
	users        *mongo.Collection
}

// New connects, pings and makes sure the indexes backing the uniqueness
// rules exist.
func New(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client:       client,
		transactions: db.Collection(transactionsCollection),
		budgets:      db.Collection(budgetsCollection),
		goals:        db.Collection(goalsCollection),
		users:        db.Collection(usersCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	slog.InfoContext(ctx, "Connected to MongoDB", "database", dbName)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.transactions, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}}}},
		{s.transactions, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "category", Value: 1}, {Key: "type", Value: 1}, {Key: "date", Value: 1}}}},
		{s.budgets, mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "category", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.goals, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}}},
		{s.users, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func matchedOne(res *mongo.UpdateResult, resource, id string) error {
	if res.MatchedCount == 0 {
		return core.NewNotFound(resource, id)
	}
	return nil
}

func deletedOne(res *mongo.DeleteResult, resource, id string) error {
	if res.DeletedCount == 0 {
		return core.NewNotFound(resource, id)
	}
	return nil
}

// InsertTransaction implements storage.TransactionWriter
func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, err := s.transactions.InsertOne(ctx, fromTransaction(t)); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	doc := fromTransaction(t)
	res, err := s.transactions.ReplaceOne(ctx, bson.M{"_id": t.ID, "user_id": t.UserID}, doc)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	return matchedOne(res, "transaction", t.ID)
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := s.transactions.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return deletedOne(res, "transaction", id)
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	var doc transactionDoc
	err := s.transactions.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Transaction{}, core.NewNotFound("transaction", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return doc.toCore(), nil
}

// FindTransactions implements storage.TransactionReader
func (s *Store) FindTransactions(ctx context.Context, q core.TransactionQuery) ([]core.Transaction, error) {
	opts := options.Find().SetSort(transactionSort(q.Order()))
	if q.Skip() > 0 {
		opts.SetSkip(int64(q.Skip()))
	}
	if q.Limit() > 0 {
		opts.SetLimit(int64(q.Limit()))
	}

	cursor, err := s.transactions.Find(ctx, transactionFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []transactionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) CountTransactions(ctx context.Context, q core.TransactionQuery) (int, error) {
	n, err := s.transactions.CountDocuments(ctx, transactionFilter(q))
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return int(n), nil
}

func (s *Store) SumTransactions(ctx context.Context, q core.TransactionQuery) (core.Money, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: transactionFilter(q)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount_cents"}}},
		}}},
	}

	cursor, err := s.transactions.Aggregate(ctx, pipeline)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total int64 `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return core.Money{}, fmt.Errorf("decode sum: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return core.Money{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.Money{Cents: result.Total}, nil
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := s.budgets.InsertOne(ctx, fromBudget(b))
	if mongo.IsDuplicateKeyError(err) {
		return core.Budget{}, &core.ConflictError{Resource: "budget", Key: b.Category}
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	return b, nil
}

func (s *Store) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	var doc budgetDoc
	err := s.budgets.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Budget{}, core.NewNotFound("budget", id)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %s: %w", id, err)
	}
	return doc.toCore(), nil
}

// FindBudgetByCategory implements storage.BudgetSpentWriter
func (s *Store) FindBudgetByCategory(ctx context.Context, userID, category string) (core.Budget, bool, error) {
	var doc budgetDoc
	err := s.budgets.FindOne(ctx, bson.M{"user_id": userID, "category": category}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Budget{}, false, nil
	}
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("find budget for %s: %w", category, err)
	}
	return doc.toCore(), true, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}})
	cursor, err := s.budgets.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []budgetDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := s.budgets.ReplaceOne(ctx, bson.M{"_id": b.ID, "user_id": b.UserID}, fromBudget(b))
	if mongo.IsDuplicateKeyError(err) {
		return &core.ConflictError{Resource: "budget", Key: b.Category}
	}
	if err != nil {
		return fmt.Errorf("update budget %s: %w", b.ID, err)
	}
	return matchedOne(res, "budget", b.ID)
}

// SetBudgetSpent implements storage.BudgetSpentWriter
func (s *Store) SetBudgetSpent(ctx context.Context, userID, category string, spent core.Money) (bool, error) {
	res, err := s.budgets.UpdateOne(ctx,
		bson.M{"user_id": userID, "category": category},
		bson.M{"$set": bson.M{"spent_cents": spent.Cents}})
	if err != nil {
		return false, fmt.Errorf("set budget spent: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := s.budgets.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	return deletedOne(res, "budget", id)
}

func (s *Store) ListBudgetOwners(ctx context.Context) ([]string, error) {
	values, err := s.budgets.Distinct(ctx, "user_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list budget owners: %w", err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if _, err := s.goals.InsertOne(ctx, fromGoal(g)); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("insert savings goal: %w", err)
	}
	return g, nil
}

func (s *Store) GetGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error) {
	var doc goalDoc
	err := s.goals.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.SavingsGoal{}, core.NewNotFound("savings goal", id)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get savings goal %s: %w", id, err)
	}
	return doc.toCore(), nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	opts := options.Find().SetSort(bson.D{{Key: "target_date", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.goals.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []goalDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode savings goals: %w", err)
	}
	out := make([]core.SavingsGoal, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

// AddGoalFunds uses $inc so concurrent deposits do not race.
func (s *Store) AddGoalFunds(ctx context.Context, userID, id string, amount core.Money) (core.SavingsGoal, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc goalDoc
	err := s.goals.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$inc": bson.M{"current_amount_cents": amount.Cents}},
		opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.SavingsGoal{}, core.NewNotFound("savings goal", id)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("add goal funds %s: %w", id, err)
	}
	return doc.toCore(), nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := s.goals.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete savings goal %s: %w", id, err)
	}
	return deletedOne(res, "savings goal", id)
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.Email = core.NormalizeEmail(u.Email)
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := s.users.InsertOne(ctx, fromUser(u))
	if mongo.IsDuplicateKeyError(err) {
		return core.User{}, &core.ConflictError{Resource: "user", Key: u.Email}
	}
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M, key string) (core.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.User{}, core.NewNotFound("user", key)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", key, err)
	}
	return doc.toCore(), nil
}

func (s *Store) GetUser(ctx context.Context, id string) (core.User, error) {
	return s.findUser(ctx, bson.M{"_id": id}, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	email = core.NormalizeEmail(email)
	return s.findUser(ctx, bson.M{"email": email}, email)
}

func (s *Store) UpdateUser(ctx context.Context, u core.User) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{
		"firstname":            u.Firstname,
		"lastname":             u.Lastname,
		"monthly_income_cents": u.MonthlyIncome.Cents,
	}})
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	return matchedOne(res, "user", u.ID)
}
