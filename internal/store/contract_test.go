package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/commerce-directory/internal/apperr"
	"github.com/suteetoe/commerce-directory/internal/model"
)

type fixture struct {
	casa, rabat   model.Ville
	paid, unpaid  model.BusinessOwner
	zeta, alpha   model.Commerce
	beta, literal model.Commerce
}

func seed(t *testing.T, s Store) fixture {
	t.Helper()
	ctx := context.Background()
	var f fixture

	f.casa = model.Ville{Villename: "Casablanca"}
	f.rabat = model.Ville{Villename: "Rabat"}
	require.NoError(t, s.CreateVille(ctx, &f.casa))
	require.NoError(t, s.CreateVille(ctx, &f.rabat))

	f.paid = model.BusinessOwner{Email: "paid@example.com", Name: "Paid", MonthlyFeePaid: true}
	f.unpaid = model.BusinessOwner{Email: "unpaid@example.com", Name: "Unpaid"}
	require.NoError(t, s.CreateOwner(ctx, &f.paid))
	require.NoError(t, s.CreateOwner(ctx, &f.unpaid))

	f.zeta = model.Commerce{Commercename: "Zeta", Services: "Shoe Repair", VilleID: f.casa.ID, BusinessOwnerID: f.paid.ID}
	f.alpha = model.Commerce{Commercename: "Alpha Bakery", Services: "Bread", VilleID: f.rabat.ID, BusinessOwnerID: f.paid.ID}
	f.beta = model.Commerce{Commercename: "Beta Shoes", Services: "Sneakers", VilleID: f.casa.ID, BusinessOwnerID: f.unpaid.ID}
	f.literal = model.Commerce{Commercename: "Gamma 100_pct", Services: "Juice", VilleID: f.rabat.ID, BusinessOwnerID: f.unpaid.ID}
	for _, c := range []*model.Commerce{&f.zeta, &f.alpha, &f.beta, &f.literal} {
		require.NoError(t, s.CreateCommerce(ctx, c))
		require.NotZero(t, c.ID)
	}
	return f
}

func names(commerces []model.Commerce) []string {
	out := make([]string, len(commerces))
	for i, c := range commerces {
		out[i] = c.Commercename
	}
	return out
}

// runStoreContract checks the behaviour every Store backend must share
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()
	f := seed(t, s)

	t.Run("villes ordered by name", func(t *testing.T) {
		villes, err := s.ListVilles(ctx)
		require.NoError(t, err)
		require.Len(t, villes, 2)
		assert.Equal(t, "Casablanca", villes[0].Villename)
		assert.Equal(t, "Rabat", villes[1].Villename)

		v, err := s.GetVille(ctx, f.rabat.ID)
		require.NoError(t, err)
		assert.Equal(t, "Rabat", v.Villename)

		_, err = s.GetVille(ctx, 9999)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		err := s.CreateOwner(ctx, &model.BusinessOwner{Email: "paid@example.com"})
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("fee gate uses owner flag", func(t *testing.T) {
		visible, err := s.ListCommerces(ctx, CommerceQuery{FeePaidOnly: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"Alpha Bakery", "Zeta"}, names(visible))

		byVille, err := s.ListCommerces(ctx, CommerceQuery{FeePaidOnly: true, VilleID: f.casa.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{"Zeta"}, names(byVille))

		all, err := s.ListCommerces(ctx, CommerceQuery{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Alpha Bakery", "Beta Shoes", "Gamma 100_pct", "Zeta"}, names(all))
	})

	t.Run("search is case-insensitive on name or services", func(t *testing.T) {
		found, err := s.ListCommerces(ctx, CommerceQuery{Search: "SHOE", WithOwner: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"Beta Shoes", "Zeta"}, names(found))
		for _, c := range found {
			require.NotNil(t, c.BusinessOwner)
			assert.Equal(t, c.BusinessOwnerID, c.BusinessOwner.ID)
		}

		gated, err := s.ListCommerces(ctx, CommerceQuery{Search: "shoe", FeePaidOnly: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"Zeta"}, names(gated))
	})

	t.Run("search treats wildcards literally", func(t *testing.T) {
		found, err := s.ListCommerces(ctx, CommerceQuery{Search: "%"})
		require.NoError(t, err)
		assert.Empty(t, found)

		found, err = s.ListCommerces(ctx, CommerceQuery{Search: "100_"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Gamma 100_pct"}, names(found))

		found, err = s.ListCommerces(ctx, CommerceQuery{Search: "a_p"})
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("ville embedding fills villeName", func(t *testing.T) {
		found, err := s.ListCommerces(ctx, CommerceQuery{OwnerID: f.paid.ID, WithVille: true})
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, "Rabat", found[0].VilleName)
		assert.Equal(t, "Casablanca", found[1].VilleName)

		c, err := s.GetCommerce(ctx, f.zeta.ID)
		require.NoError(t, err)
		assert.Equal(t, "Casablanca", c.VilleName)
	})

	t.Run("update and delete", func(t *testing.T) {
		err := s.UpdateCommerce(ctx, model.CommerceUpdate{
			ID: f.alpha.ID, Commercename: "Alpha Bakery & Co", Services: "Bread, Cakes", VilleID: f.casa.ID,
		})
		require.NoError(t, err)

		c, err := s.GetCommerce(ctx, f.alpha.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alpha Bakery & Co", c.Commercename)
		assert.Equal(t, f.casa.ID, c.VilleID)

		err = s.UpdateCommerce(ctx, model.CommerceUpdate{ID: 9999, Commercename: "x", Services: "y", VilleID: f.casa.ID})
		assert.True(t, apperr.IsNotFound(err))

		require.NoError(t, s.SetCommerceImage(ctx, f.alpha.ID, "commerces/alpha.png"))
		c, err = s.GetCommerce(ctx, f.alpha.ID)
		require.NoError(t, err)
		assert.Equal(t, "commerces/alpha.png", c.ImageCommerce)

		require.NoError(t, s.DeleteCommerce(ctx, f.beta.ID))
		_, err = s.GetCommerce(ctx, f.beta.ID)
		assert.True(t, apperr.IsNotFound(err))
		assert.True(t, apperr.IsNotFound(s.DeleteCommerce(ctx, f.beta.ID)))

		all, err := s.ListCommerces(ctx, CommerceQuery{})
		require.NoError(t, err)
		assert.NotContains(t, names(all), "Beta Shoes")
	})

	t.Run("latest payment and expiry sweep", func(t *testing.T) {
		_, err := s.LatestPayment(ctx, f.paid.ID)
		assert.True(t, apperr.IsNotFound(err))

		jan := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
		older, err := model.NewPayment(f.paid.ID, decimal.NewFromInt(50), 1, jan)
		require.NoError(t, err)
		newer, err := model.NewPayment(f.paid.ID, decimal.RequireFromString("120.50"), 3, jan.AddDate(0, 1, 0))
		require.NoError(t, err)
		require.NoError(t, s.CreatePayment(ctx, newer))
		require.NoError(t, s.CreatePayment(ctx, older))

		latest, err := s.LatestPayment(ctx, f.paid.ID)
		require.NoError(t, err)
		assert.Equal(t, newer.ID, latest.ID)
		assert.True(t, decimal.RequireFromString("120.50").Equal(latest.Amount))
		assert.True(t, newer.ExpiryDate.Equal(latest.ExpiryDate))

		// still covered on the expiry date itself
		n, err := s.ExpireLapsedOwners(ctx, newer.ExpiryDate)
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = s.ExpireLapsedOwners(ctx, newer.ExpiryDate.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		owner, err := s.GetOwner(ctx, f.paid.ID)
		require.NoError(t, err)
		assert.False(t, owner.MonthlyFeePaid)

		require.NoError(t, s.SetOwnerFeePaid(ctx, f.paid.ID, true))
		byEmail, err := s.GetOwnerByEmail(ctx, "paid@example.com")
		require.NoError(t, err)
		assert.True(t, byEmail.MonthlyFeePaid)

		assert.True(t, apperr.IsNotFound(s.SetOwnerFeePaid(ctx, 9999, true)))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}
