package cache

import (
	"Bookstore/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	booksKey        = "books"
	booksVersionKey = "books:version"
	booksTTL        = 10 * time.Minute
)

var errStaleFill = errors.New("book cache changed since read")

// BookCache keeps the book list in a sorted set scored by book ID.
// Every write bumps a version counter so a list read from the database
// before the write can not be stored after it.
// A nil *BookCache is valid and caches nothing.
type BookCache struct {
	rdb *redis.Client
}

func NewBookCache(rdb *redis.Client) *BookCache {
	if rdb == nil {
		return nil
	}
	return &BookCache{rdb: rdb}
}

// List returns the cached books in ID order. ok is false when nothing is cached.
func (b *BookCache) List(ctx context.Context) (books []models.Book, ok bool, err error) {
	if b == nil {
		return nil, false, nil
	}
	members, err := b.rdb.ZRange(ctx, booksKey, 0, -1).Result()
	if err != nil {
		return nil, false, fmt.Errorf("read book cache: %w", err)
	}
	if len(members) == 0 {
		return nil, false, nil
	}

	books = make([]models.Book, 0, len(members))
	for _, member := range members {
		var book models.Book
		if err := json.Unmarshal([]byte(member), &book); err != nil {
			return nil, false, fmt.Errorf("decode cached book: %w", err)
		}
		books = append(books, book)
	}
	return books, true, nil
}

// Version returns the current write version. Pass it to Fill.
func (b *BookCache) Version(ctx context.Context) (int64, error) {
	if b == nil {
		return 0, nil
	}
	version, err := b.rdb.Get(ctx, booksVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("read book cache version: %w", err)
	}
	return version, nil
}

// Fill replaces the cached list, unless a write happened after version was read.
// The list expires after booksTTL.
func (b *BookCache) Fill(ctx context.Context, version int64, books []models.Book) error {
	if b == nil {
		return nil
	}
	members := make([]redis.Z, 0, len(books))
	for _, book := range books {
		bookJSON, err := json.Marshal(book)
		if err != nil {
			return fmt.Errorf("encode book %d: %w", book.ID, err)
		}
		members = append(members, redis.Z{Score: float64(book.ID), Member: bookJSON})
	}

	err := b.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, booksVersionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, booksKey)
			if len(members) > 0 {
				pipe.ZAdd(ctx, booksKey, members...)
				pipe.Expire(ctx, booksKey, booksTTL)
			}
			return nil
		})
		return err
	}, booksVersionKey)
	if errors.Is(err, errStaleFill) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fill book cache: %w", err)
	}
	return nil
}

func (b *BookCache) Remove(ctx context.Context, bookID uint) error {
	if b == nil {
		return nil
	}
	score := strconv.FormatUint(uint64(bookID), 10)
	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, booksKey, score, score)
		pipe.Incr(ctx, booksVersionKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove book %d from cache: %w", bookID, err)
	}
	return nil
}

// Invalidate drops the cached list.
func (b *BookCache) Invalidate(ctx context.Context) error {
	if b == nil {
		return nil
	}
	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, booksKey)
		pipe.Incr(ctx, booksVersionKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate book cache: %w", err)
	}
	return nil
}
