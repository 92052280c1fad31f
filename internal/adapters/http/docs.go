package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/coords/api"
)

// The REST routes come from the OpenAPI document; the websocket and GraphQL
// surfaces are not expressible there, so the page lists them above the UI.
const docsHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>coords API</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  <style>
    body{margin:0;background:#fafafa;font-family:sans-serif}
    .live{max-width:1400px;margin:0 auto;padding:16px 20px 0}
    .live code{background:#eee;padding:1px 4px;border-radius:3px}
  </style>
</head>
<body>
  <section class="live">
    <h2>Live surfaces</h2>
    <p><code>GET /ws</code> streams the selected projection. Send
      <code>{"action":"select","projection":"utm"}</code> or
      <code>{"action":"refresh"}</code>; frames are <code>readout</code>,
      <code>age</code>, <code>consent_required</code>, <code>no_fix</code> and <code>error</code>.</p>
    <p><code>POST /graphql</code> queries <code>projections</code>, <code>location</code> and
      <code>readout(projection)</code>; mutations <code>selectProjection</code>,
      <code>setConsent</code> and <code>submitFix</code>.</p>
  </section>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/docs/openapi.yaml',
      dom_id: '#swagger-ui',
      deepLinking: true,
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout',
    });
  </script>
</body>
</html>`

// SetupDocs registers the docs page at /docs and the embedded OpenAPI
// document at /docs/openapi.yaml.
func SetupDocs(app *fiber.App) {
	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(docsHTML)
	})

	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(api.OpenAPI)
	})
}
