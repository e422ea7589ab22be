// Package account serves the password login and logout pages.
//
// Mount Router under a prefix and call RegisterURLs with the same prefix so
// the "login" and "logout" route names resolve for the rest of the app.
package account
