package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/vbarbosa/retail-pos/internal/adapter/storage"
	"github.com/vbarbosa/retail-pos/internal/core/domain"
	"github.com/vbarbosa/retail-pos/internal/core/service"
)

const (
	mysqlDSN      = "root:root@tcp(localhost:3306)/retailpos?parseTime=true&multiStatements=true"
	identity      = "funcionario-stress"
	initialStock  = 20
	totalRequests = 50
)

// Fires concurrent single-unit sales at one product and checks that exactly
// initialStock of them are recorded and the stock lands on zero.
func main() {
	ctx := context.Background()

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	// Seed one customer and one product for the run
	res, err := db.ExecContext(ctx, `INSERT INTO customer (name, age, sex, birth_date) VALUES ('Stress Customer', 30, 'o', '1995-01-01')`)
	if err != nil {
		log.Fatalf("failed to seed customer: %v", err)
	}
	customerID, _ := res.LastInsertId()

	res, err = db.ExecContext(ctx, `
		INSERT INTO product (name, description, stock_quantity, unit_price, notes, seller_id)
		VALUES ('Stress Item', 'stress test product', ?, 10.00, '', NULL)`, initialStock)
	if err != nil {
		log.Fatalf("failed to seed product: %v", err)
	}
	productID, _ := res.LastInsertId()

	gw := storage.NewGateway(db)
	saleService := service.NewSaleService(storage.NewMySQLCatalog(gw), storage.NewMySQLSales(gw), nil)

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := saleService.RecordSale(ctx, identity, domain.SaleRequest{
				RequestID:  uuid.NewString(),
				CustomerID: customerID,
				Address:    "Stress St. 1",
				ProductID:  productID,
				Quantity:   1,
			})
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == int32(initialStock) && fail == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: Exactly %d sales recorded, %d rejected\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	var finalStock int
	db.QueryRowContext(ctx, `SELECT stock_quantity FROM product WHERE id = ?`, productID).Scan(&finalStock)
	fmt.Printf("Final Stock: %d\n", finalStock)

	if finalStock == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", finalStock)
	}
}
