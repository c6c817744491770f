package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/dispatchtx"
	"service-dispatch/internal/repository/memory"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func seed(s *memory.Store) {
	origin := &domain.Location{Latitude: 28.6138, Longitude: 77.2089}
	s.PutOrder(domain.Order{ID: "o1", GroupID: strPtr("g1"), Origin: origin, Status: domain.OrderPending, CreatedAt: t0})
	s.PutOrder(domain.Order{ID: "o2", GroupID: strPtr("g1"), Origin: origin, Status: domain.OrderPending, CreatedAt: t0.Add(time.Second)})
	s.PutOrder(domain.Order{ID: "o3", Origin: origin, Status: domain.OrderPending, CreatedAt: t0.Add(-time.Minute)})
	s.PutCourier(domain.Courier{ID: "a", PushID: "fb-a", Online: true, Available: true, Location: &domain.Location{Latitude: 28.6139, Longitude: 77.2090}})
	s.PutCourier(domain.Courier{ID: "b", Online: true, Available: true})
	s.PutCourier(domain.Courier{ID: "c", Online: false, Available: false, Location: &domain.Location{Latitude: 28.62, Longitude: 77.21}})
}

func TestStore_GetGroupByOrderOrGroupID(t *testing.T) {
	s := memory.New()
	seed(s)
	ctx := context.Background()

	byGroup, err := s.GetGroup(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, []string{"o1", "o2"}, byGroup.IDs())

	byMember, err := s.GetGroup(ctx, "o2")
	require.NoError(t, err)
	require.Equal(t, byGroup.IDs(), byMember.IDs())

	single, err := s.GetGroup(ctx, "o3")
	require.NoError(t, err)
	require.Equal(t, "o3", single.Key)

	_, err = s.GetGroup(ctx, "missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStore_FindEligible(t *testing.T) {
	s := memory.New()
	seed(s)

	got, err := s.FindEligible(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, domain.CourierID("a"), got[0].ID)

	got, err = s.FindEligible(context.Background(), []domain.CourierID{"a"})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestStore_ResolveEitherIdentity(t *testing.T) {
	s := memory.New()
	seed(s)
	ctx := context.Background()

	c, err := s.Resolve(ctx, "fb-a")
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Equal(t, domain.CourierID("a"), c.ID)

	c, err = s.Resolve(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, domain.CourierID("a"), c.ID)

	c, err = s.Resolve(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, c)
}

func TestStore_ListOutstandingOldestFirst(t *testing.T) {
	s := memory.New()
	seed(s)
	s.PutOrder(domain.Order{ID: "o4", Status: domain.OrderPending, CreatedAt: t0.Add(-time.Hour)})

	got, err := s.ListOutstanding(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "o3", got[0].ID)
	require.Equal(t, "o1", got[1].ID)
}

func TestStore_ListOutstandingSkipsOrdersNoEligibleCourierCanTake(t *testing.T) {
	s := memory.New()
	seed(s)
	o3, _ := s.Order("o3")
	o3.RejectedBy = []domain.CourierID{"a"}
	s.PutOrder(o3)

	got, err := s.ListOutstanding(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, []string{"o1", "o2"}, []string{got[0].ID, got[1].ID})

	s.PutCourier(domain.Courier{ID: "d", Online: true, Available: true, Location: &domain.Location{Latitude: 28.6, Longitude: 77.2}})
	got, err = s.ListOutstanding(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "o3", got[0].ID)
}

func TestStore_RegisterOrderJoinsAcceptedGroup(t *testing.T) {
	s := memory.New()
	seed(s)
	ctx := context.Background()
	for _, id := range []string{"o1", "o2"} {
		o, _ := s.Order(id)
		domain.Assign(&o, "a", t0)
		o.RejectedBy = []domain.CourierID{"c"}
		s.PutOrder(o)
	}

	require.NoError(t, s.RegisterOrder(ctx, domain.Order{ID: "o5", GroupID: strPtr("g1"), CreatedAt: t0.Add(time.Minute)}))

	late, ok := s.Order("o5")
	require.True(t, ok)
	require.Equal(t, domain.OrderAccepted, late.Status)
	require.Equal(t, domain.CourierID("a"), *late.AssignedCourier)
	require.Equal(t, []domain.CourierID{"c"}, late.RejectedBy)

	offers, err := s.ListAvailableOffers(ctx, "b")
	require.NoError(t, err)
	for _, o := range offers {
		require.NotEqual(t, "o5", o.ID)
	}

	require.NoError(t, s.RegisterOrder(ctx, domain.Order{ID: "o5", Status: domain.OrderCancelled}))
	again, _ := s.Order("o5")
	require.Equal(t, domain.OrderAccepted, again.Status)
}

func TestStore_WithTxDiscardsWritesOnError(t *testing.T) {
	s := memory.New()
	seed(s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx dispatchtx.Repository) error {
		orders, err := tx.LockGroup(ctx, "g1")
		require.NoError(t, err)
		for i := range orders {
			orders[i].Status = domain.OrderAccepted
		}
		require.NoError(t, tx.SaveOrders(ctx, orders))
		require.NoError(t, tx.SetCourierAvailable(ctx, "a", false))
		return boom
	})
	require.ErrorIs(t, err, boom)

	o1, _ := s.Order("o1")
	require.Equal(t, domain.OrderPending, o1.Status)
	a, _ := s.Courier("a")
	require.True(t, a.Available)
}

func TestStore_TxReadsOwnWrites(t *testing.T) {
	s := memory.New()
	seed(s)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx dispatchtx.Repository) error {
		orders, err := tx.LockGroup(ctx, "o3")
		if err != nil {
			return err
		}
		courier := domain.CourierID("a")
		orders[0].Status = domain.OrderAccepted
		orders[0].AssignedCourier = &courier
		if err := tx.SaveOrders(ctx, orders); err != nil {
			return err
		}
		n, err := tx.CountAccepted(ctx, courier)
		require.NoError(t, err)
		require.Equal(t, 1, n)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_SaveOrdersRequiresLock(t *testing.T) {
	s := memory.New()
	seed(s)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx dispatchtx.Repository) error {
		o, _ := s.Order("o3")
		return tx.SaveOrders(ctx, []domain.Order{o})
	})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestStore_LockGroupSerializesTransactions(t *testing.T) {
	s := memory.New()
	seed(s)
	ctx := context.Background()

	var (
		mu     sync.Mutex
		inside int
		maxIn  int
		wg     sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithTx(ctx, func(tx dispatchtx.Repository) error {
				if _, err := tx.LockGroup(ctx, "o1"); err != nil {
					return err
				}
				mu.Lock()
				inside++
				if inside > maxIn {
					maxIn = inside
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	require.Equal(t, 1, maxIn)
}

func TestStore_SessionBookkeeping(t *testing.T) {
	s := memory.New()
	seed(s)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)

	require.NoError(t, s.SetOnline(ctx, "c", start))
	c, _ := s.Courier("c")
	require.True(t, c.Online)
	require.True(t, c.Available)
	require.Equal(t, start, *c.LastOnlineAt)

	require.NoError(t, s.SetOffline(ctx, "c", start.Add(45*time.Minute)))
	c, _ = s.Courier("c")
	require.False(t, c.Online)
	require.False(t, c.Available)

	first, err := s.OnlineSeconds(ctx, "c", start)
	require.NoError(t, err)
	require.Equal(t, int64(1800), first)
	second, err := s.OnlineSeconds(ctx, "c", start.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(900), second)

	// a repeated offline books nothing
	require.NoError(t, s.SetOffline(ctx, "c", start.Add(2*time.Hour)))
	first, _ = s.OnlineSeconds(ctx, "c", start)
	require.Equal(t, int64(1800), first)

	require.ErrorIs(t, s.SetOnline(ctx, "ghost", start), apperr.ErrNotFound)
}

func TestStore_SetOnlineKeepsBusyCourierUnavailable(t *testing.T) {
	s := memory.New()
	seed(s)
	courier := domain.CourierID("c")
	s.PutOrder(domain.Order{ID: "busy", Status: domain.OrderAccepted, AssignedCourier: &courier, CreatedAt: t0})

	require.NoError(t, s.SetOnline(context.Background(), courier, t0))
	c, _ := s.Courier(courier)
	require.True(t, c.Online)
	require.False(t, c.Available)
}
