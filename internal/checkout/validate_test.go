package checkout_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokokriya/storefront/internal/checkout"
)

func TestValidateAddress(t *testing.T) {
	t.Parallel()

	v := checkout.NewValidator()

	require.Empty(t, checkout.ValidateAddress(v, validAddress()))

	addr := validAddress()
	addr.FullName = " "
	addr.Phone = "abc"
	fields := checkout.ValidateAddress(v, addr)
	require.Contains(t, fields, "fullName")
	require.Contains(t, fields, "phone")
	require.NotContains(t, fields, "email")
}

func TestValidateAddressPhoneShapes(t *testing.T) {
	t.Parallel()

	v := checkout.NewValidator()
	for _, phone := range []string{"+62 812 3456 789", "0812-3456-7890", "081234567890"} {
		addr := validAddress()
		addr.Phone = phone
		require.Empty(t, checkout.ValidateAddress(v, addr), phone)
	}
	for _, phone := range []string{"12", "phone", "+62!812"} {
		addr := validAddress()
		addr.Phone = phone
		require.Contains(t, checkout.ValidateAddress(v, addr), "phone", phone)
	}
}

func TestValidateAddressPostalShapes(t *testing.T) {
	t.Parallel()

	v := checkout.NewValidator()
	for _, code := range []string{"4011", "40111", "4011122233"} {
		addr := validAddress()
		addr.PostalCode = code
		require.Empty(t, checkout.ValidateAddress(v, addr), code)
	}
	for _, code := range []string{"401", "40111222334", "40a11"} {
		addr := validAddress()
		addr.PostalCode = code
		require.Contains(t, checkout.ValidateAddress(v, addr), "postalCode", code)
	}
}
