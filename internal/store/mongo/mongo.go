// Package mongo はMongoDBによるstore.Storeの実装を提供する。
//
// Todoの更新・削除はFindOneAndUpdate/FindOneAndDeleteにより
// IDと所有者を同時に条件とした1回の操作で行う。
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/todo/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection = "users"
	todosCollection = "todos"
	connectTimeout  = 10 * time.Second
)

// userDocument はusersコレクションのドキュメント。
type userDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

// todoDocument はtodosコレクションのドキュメント。
type todoDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Task      string    `bson:"task"`
	Completed bool      `bson:"completed"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d todoDocument) toTodo() store.Todo {
	return store.Todo{
		ID:        d.ID,
		UserID:    d.UserID,
		Task:      d.Task,
		Completed: d.Completed,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// Store はMongoDBをバックエンドとするストア。
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	todos  *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Open はMongoDBに接続し、必要なインデックスを作成する。
func Open(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("MongoDBへの接続に失敗: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDBへの疎通確認に失敗: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client: client,
		users:  db.Collection(usersCollection),
		todos:  db.Collection(todosCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// ensureIndexes はメールアドレスの一意インデックスと所有者インデックスを作成する。
func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("usersインデックスの作成に失敗: %w", err)
	}
	if _, err := s.todos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		return fmt.Errorf("todosインデックスの作成に失敗: %w", err)
	}
	return nil
}

// Close は接続を切断する。
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// CreateUser はユーザーを保存する。
func (s *Store) CreateUser(ctx context.Context, user store.User) error {
	_, err := s.users.InsertOne(ctx, userDocument{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("ユーザーの保存に失敗: %w", err)
	}
	return nil
}

// GetUserByEmail はメールアドレスでユーザーを取得する。
func (s *Store) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	var doc userDocument
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	return store.User{
		ID:           doc.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt.UTC(),
	}, nil
}

// ListTodos は所有者のTodoを作成日時、ID の順で返す。
// created_atはミリ秒精度のため、同じミリ秒に作成されたTodoは挿入順ではなくID順になる。
func (s *Store) ListTodos(ctx context.Context, userID string) ([]store.Todo, error) {
	cur, err := s.todos.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("Todo一覧の取得に失敗: %w", err)
	}
	var docs []todoDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("Todo一覧の読み取りに失敗: %w", err)
	}

	todos := make([]store.Todo, 0, len(docs))
	for _, d := range docs {
		todos = append(todos, d.toTodo())
	}
	return todos, nil
}

// CreateTodo はTodoを保存する。
func (s *Store) CreateTodo(ctx context.Context, todo store.Todo) error {
	if _, err := s.todos.InsertOne(ctx, todoDocument{
		ID:        todo.ID,
		UserID:    todo.UserID,
		Task:      todo.Task,
		Completed: todo.Completed,
		CreatedAt: todo.CreatedAt.UTC(),
	}); err != nil {
		return fmt.Errorf("Todoの保存に失敗: %w", err)
	}
	return nil
}

// FindOneAndUpdate はIDと所有者が一致するTodoを更新し、更新後のドキュメントを返す。
// patchが空の場合は同じ条件のFindOneで現在値を返す。
func (s *Store) FindOneAndUpdate(ctx context.Context, id, userID string, patch store.TodoPatch) (store.Todo, error) {
	filter := bson.M{"_id": id, "user_id": userID}

	var res *mongo.SingleResult
	if set := patchToSet(patch); len(set) > 0 {
		res = s.todos.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After))
	} else {
		res = s.todos.FindOne(ctx, filter)
	}

	var doc todoDocument
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.Todo{}, store.ErrNotFound
		}
		return store.Todo{}, fmt.Errorf("Todoの更新に失敗: %w", err)
	}
	return doc.toTodo(), nil
}

// FindOneAndDelete はIDと所有者が一致するTodoを削除し、削除前のドキュメントを返す。
func (s *Store) FindOneAndDelete(ctx context.Context, id, userID string) (store.Todo, error) {
	var doc todoDocument
	err := s.todos.FindOneAndDelete(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Todo{}, store.ErrNotFound
	}
	if err != nil {
		return store.Todo{}, fmt.Errorf("Todoの削除に失敗: %w", err)
	}
	return doc.toTodo(), nil
}

// patchToSet はTodoPatchを$setドキュメントに変換する。
func patchToSet(patch store.TodoPatch) bson.M {
	set := bson.M{}
	if patch.Task != nil {
		set["task"] = *patch.Task
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}
	return set
}
