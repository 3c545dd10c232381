package services_test

import (
	"context"
	"testing"

	"bikeshop/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shippingInput(street string, def bool) services.AddressInput {
	return services.AddressInput{
		AddressType: ptr("shipping"), Street: ptr(street), City: ptr("Dhaka"), State: ptr("Dhaka"),
		PostalCode: ptr("1207"), Phone: ptr("01700000001"), IsDefaultShipping: ptr(def),
	}
}

func TestAddressDefaultIsUniquePerType(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	addrs := services.NewAddressService(db, commerce())
	alice := userByEmail(t, db, "alice@bikeshop.test")

	first, err := addrs.Create(ctx, alice.ID, shippingInput("1 First St", true))
	require.NoError(t, err)
	assert.Equal(t, "Bangladesh", first.Country)

	second, err := addrs.Create(ctx, alice.ID, shippingInput("2 Second St", true))
	require.NoError(t, err)

	got, err := addrs.Get(ctx, alice.ID, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDefaultShipping, "creating a new default clears the old one")

	_, err = addrs.Update(ctx, alice.ID, first.ID, services.AddressInput{IsDefaultShipping: ptr(true)})
	require.NoError(t, err)
	got, err = addrs.Get(ctx, alice.ID, second.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDefaultShipping)

	billing, err := addrs.Create(ctx, alice.ID, services.AddressInput{
		AddressType: ptr("billing"), Street: ptr("3 Bill St"), City: ptr("Dhaka"), State: ptr("Dhaka"),
		PostalCode: ptr("1207"), Phone: ptr("01700000001"), IsDefaultBilling: ptr(true),
	})
	require.NoError(t, err)
	assert.True(t, billing.IsDefaultBilling)
	got, err = addrs.Get(ctx, alice.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDefaultShipping, "billing default leaves shipping default alone")
}

func TestAddressValidation(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	addrs := services.NewAddressService(db, commerce())
	alice := userByEmail(t, db, "alice@bikeshop.test")

	in := shippingInput("1 First St", false)
	in.IsDefaultBilling = ptr(true)
	_, err := addrs.Create(ctx, alice.ID, in)
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "is_default_billing")

	_, err = addrs.Create(ctx, alice.ID, services.AddressInput{AddressType: ptr("home")})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{`"home" is not a valid choice.`}, ve.Fields["address_type"])
	for _, f := range []string{"street", "city", "state", "postal_code", "phone"} {
		assert.Contains(t, ve.Fields, f)
	}
}

func TestAddressOwnership(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	addrs := services.NewAddressService(db, commerce())
	alice := userByEmail(t, db, "alice@bikeshop.test")
	bob := userByEmail(t, db, "bob@bikeshop.test")

	a, err := addrs.Create(ctx, alice.ID, shippingInput("1 First St", false))
	require.NoError(t, err)

	_, err = addrs.Get(ctx, bob.ID, a.ID)
	assert.EqualError(t, err, "Address not found")
	_, err = addrs.Update(ctx, bob.ID, a.ID, services.AddressInput{City: ptr("Khulna")})
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.ErrorIs(t, addrs.Delete(ctx, bob.ID, a.ID), services.ErrNotFound)

	updated, err := addrs.Update(ctx, alice.ID, a.ID, services.AddressInput{City: ptr("Khulna")})
	require.NoError(t, err)
	assert.Equal(t, "Khulna", updated.City)
	assert.Equal(t, "1 First St", updated.Street)

	require.NoError(t, addrs.Delete(ctx, alice.ID, a.ID))
	list, err := addrs.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
