package repository

import (
	"context"
	"errors"
	"testing"

	"tavern/internal/config"
	"tavern/internal/infrastructure/database"
	"tavern/internal/model"

	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{
		Driver:       "sqlite",
		URL:          "file::memory:",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	return db
}

func seedCustomer(t *testing.T, repo *CustomerRepository, name, phone string, balance float64) *model.Customer {
	t.Helper()
	c := &model.Customer{Name: name, PhoneNumber: phone, Balance: balance, Password: "Abc12345"}
	if err := repo.Create(context.Background(), nil, c); err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return c
}

func TestCustomerCreateAndGet(t *testing.T) {
	repo := NewCustomerRepository(newTestDB(t))
	ctx := context.Background()

	created := seedCustomer(t, repo, "Alice", "555-0100", 10)
	if created.ID == 0 {
		t.Fatal("id not assigned")
	}

	got, err := repo.GetByID(ctx, nil, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if *got != *created {
		t.Fatalf("got %+v, want %+v", got, created)
	}

	if _, err := repo.GetByID(ctx, nil, created.ID+100); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("missing id err = %v, want ErrCustomerNotFound", err)
	}
}

func TestCustomerListAll(t *testing.T) {
	repo := NewCustomerRepository(newTestDB(t))
	ctx := context.Background()

	empty, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("empty table should return an empty, non-nil slice, got %v", empty)
	}

	seedCustomer(t, repo, "Alice", "555-0100", 0)
	seedCustomer(t, repo, "Bob", "555-0101", 3.5)

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
}

func TestCustomerFindByPhoneNumber(t *testing.T) {
	repo := NewCustomerRepository(newTestDB(t))
	ctx := context.Background()
	seedCustomer(t, repo, "Alice", "555-0100", 0)

	found, err := repo.FindByPhoneNumber(ctx, nil, "555-0100")
	if err != nil || found == nil || found.Name != "Alice" {
		t.Fatalf("FindByPhoneNumber = %+v, %v", found, err)
	}

	missing, err := repo.FindByPhoneNumber(ctx, nil, "555-0199")
	if err != nil || missing != nil {
		t.Fatalf("missing phone = %+v, %v; want nil, nil", missing, err)
	}
}

func TestCustomerFindByNameReturnsFirstOnCollision(t *testing.T) {
	repo := NewCustomerRepository(newTestDB(t))
	ctx := context.Background()
	first := seedCustomer(t, repo, "Sam", "555-0100", 0)
	seedCustomer(t, repo, "Sam", "555-0101", 0)

	got, err := repo.FindByName(ctx, "Sam")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("FindByName id = %d, want %d", got.ID, first.ID)
	}

	none, err := repo.FindByName(ctx, "Nobody")
	if err != nil || none != nil {
		t.Fatalf("unknown name = %+v, %v", none, err)
	}
}

func TestCustomerUpdate(t *testing.T) {
	repo := NewCustomerRepository(newTestDB(t))
	ctx := context.Background()
	c := seedCustomer(t, repo, "Alice", "555-0100", 10)

	updated, err := repo.Update(ctx, nil, c.ID, &CustomerUpdate{Name: "Alicia", PhoneNumber: "555-0111", Balance: 3.5})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Alicia" || updated.PhoneNumber != "555-0111" || updated.Balance != 3.5 {
		t.Fatalf("updated = %+v", updated)
	}
	if updated.Password != c.Password || updated.ID != c.ID {
		t.Fatal("id and password must not change")
	}

	stored, _ := repo.GetByID(ctx, nil, c.ID)
	if *stored != *updated {
		t.Fatalf("stored %+v, returned %+v", stored, updated)
	}

	// 零值同样写入，不是部分更新
	zeroed, err := repo.Update(ctx, nil, c.ID, &CustomerUpdate{})
	if err != nil {
		t.Fatalf("Update with zero values: %v", err)
	}
	stored, _ = repo.GetByID(ctx, nil, c.ID)
	if zeroed.Balance != 0 || stored.Balance != 0 || stored.Name != "" || stored.PhoneNumber != "" {
		t.Fatalf("stored = %+v, want zero values written", stored)
	}
}

func TestCustomerUpdateMissingDoesNotCreate(t *testing.T) {
	db := newTestDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	_, err := repo.Update(ctx, nil, 42, &CustomerUpdate{Name: "Ghost", PhoneNumber: "555-0000"})
	if !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("err = %v, want ErrCustomerNotFound", err)
	}

	var count int64
	db.Model(&model.Customer{}).Count(&count)
	if count != 0 {
		t.Fatalf("update created %d rows", count)
	}
}

func TestCustomerDelete(t *testing.T) {
	repo := NewCustomerRepository(newTestDB(t))
	ctx := context.Background()
	c := seedCustomer(t, repo, "Alice", "555-0100", 0)

	if err := repo.Delete(ctx, nil, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, nil, c.ID); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("after delete err = %v", err)
	}
	if err := repo.Delete(ctx, nil, c.ID); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}
