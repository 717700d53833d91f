// Package session defines how the scraper talks to the video service.
//
// A Session logs in and opens the library listing; the returned Page is
// scanned for titles with CollectPass and asked for more content with
// Advance. Two implementations exist:
//
//   - browser: drives headless Chrome through go-rod. Advance presses
//     PAGE_DOWN and waits until the number of rendered titles stops changing.
//   - static: a cookie-carrying HTTP client (resty) that submits the login
//     form and parses the listing with goquery. Advance follows a page query
//     parameter when one is configured.
//
// Sessions do not enforce call order. library.Scraper does.
package session
