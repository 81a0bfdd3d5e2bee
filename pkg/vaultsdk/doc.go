/*
Package vaultsdk is a Go client for the credential vault HTTP API.

The client is unauthenticated: the vault identifies callers by user id and is
expected to sit behind the conversational front end, not on the open
internet.

# Accounts

	client := vaultsdk.NewClient("http://localhost:8080")

	reg, err := client.Register(ctx, "a@b.com", "longenough1")
	if err != nil {
		log.Fatal(err)
	}

	login, err := client.Login(ctx, "a@b.com", "longenough1")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(login.Status.HasAPIKey)

# Handshakes

A handshake returns the authorization URL immediately. The token arrives in
the background once the user has completed the flow, so callers poll:

	hs, err := client.InitiateHandshake(ctx, vaultsdk.HandshakeRequest{
		UserID: reg.UserID,
		APIKey: "k1",
	})
	if errors.Is(err, vaultsdk.ErrHandshakeInProgress) {
		// another handshake is in flight; back off and retry
	}
	fmt.Println("visit", hs.AuthURL)

	st, err := client.WaitForHandshake(ctx, reg.UserID, time.Second)
	if err == nil && st.Authenticated {
		fmt.Println("authenticated as", st.Profile.Name)
	}

# Errors

Every non-2xx response becomes an *APIError. The predefined errors in this
package compare equal to it by code, so errors.Is works:

	if errors.Is(err, vaultsdk.ErrDuplicateEmail) { ... }
*/
package vaultsdk
