package demoserver

import "strings"

// PageVersion is one rendering of a page.
type PageVersion struct {
	HTML        string
	ContentType string
	Headers     map[string]string
}

// PageDefinition holds every version of a single page. Version 1 carries the
// seeded accessibility defects, version 2 fixes them.
type PageDefinition struct {
	Path        string
	Description string
	Defects     []string
	Versions    map[int]PageVersion

	// Private pages redirect to /login without a session cookie.
	Private bool
}

const (
	VersionBroken = 1
	VersionFixed  = 2
)

// GetAllPages returns all demo page definitions.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		getHomePage(),
		getProductsPage(),
		getWidgetPage(),
		getContactPage(),
		getLoginPage(),
		getAccountPage(),
	}
}

func layout(lang, title, body string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html")
	if lang != "" {
		b.WriteString(` lang="` + lang + `"`)
	}
	b.WriteString(">\n<head>\n<meta charset=\"utf-8\">\n")
	if title != "" {
		b.WriteString("<title>" + title + "</title>\n")
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(`<nav><a href="/">Home</a> <a href="/products">Products</a> <a href="/contact">Contact</a> <a href="/login">Sign in</a></nav>` + "\n")
	b.WriteString("<main>\n" + body + "\n</main>\n")
	b.WriteString(`<footer><a href="https://www.w3.org/WAI/">W3C WAI</a></footer>` + "\n")
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func pageVersions(broken, fixed string) map[int]PageVersion {
	return map[int]PageVersion{
		VersionBroken: {HTML: broken},
		VersionFixed:  {HTML: fixed},
	}
}

// ===== HOME PAGE =====

func getHomePage() PageDefinition {
	return PageDefinition{
		Path:        "/",
		Description: "Landing page with a hero image",
		Defects:     []string{"html-has-lang", "image-alt"},
		Versions: pageVersions(
			layout("", "Gadget Store", `<h1>Gadget Store</h1>
<img src="/static/hero.png">
<p>Hand-made gadgets since 1999.</p>`),
			layout("en", "Gadget Store", `<h1>Gadget Store</h1>
<img src="/static/hero.png" alt="A workbench covered in gadgets">
<p>Hand-made gadgets since 1999.</p>`),
		),
	}
}

// ===== PRODUCTS =====

func getProductsPage() PageDefinition {
	return PageDefinition{
		Path:        "/products",
		Description: "Product list with low-contrast prices",
		Defects:     []string{"color-contrast", "link-name"},
		Versions: pageVersions(
			layout("en", "Products", `<h1>Products</h1>
<ul>
  <li><a href="/products/widget">Widget</a> <span style="color:#ccc;background:#fff">$10</span></li>
  <li><a href="/products/widget"><img src="/static/widget.png"></a></li>
</ul>`),
			layout("en", "Products", `<h1>Products</h1>
<ul>
  <li><a href="/products/widget">Widget</a> <span style="color:#333;background:#fff">$10</span></li>
  <li><a href="/products/widget"><img src="/static/widget.png" alt="Widget"></a></li>
</ul>`),
		),
	}
}

func getWidgetPage() PageDefinition {
	return PageDefinition{
		Path:        "/products/widget",
		Description: "Nested product page, two links deep",
		Defects:     []string{"document-title", "heading-order"},
		Versions: pageVersions(
			layout("en", "", `<h1>Widget</h1>
<h4>Details</h4>
<p>A very good widget.</p>`),
			layout("en", "Widget", `<h1>Widget</h1>
<h2>Details</h2>
<p>A very good widget.</p>`),
		),
	}
}

// ===== CONTACT =====

func getContactPage() PageDefinition {
	return PageDefinition{
		Path:        "/contact",
		Description: "Contact form with unlabeled fields",
		Defects:     []string{"label", "select-name"},
		Versions: pageVersions(
			layout("en", "Contact", `<h1>Contact us</h1>
<form method="post" action="/contact">
  <input type="text" name="name" placeholder="Name">
  <select name="topic"><option value="sales">Sales</option><option value="support">Support</option></select>
  <textarea name="message"></textarea>
  <button type="submit">Send</button>
</form>`),
			layout("en", "Contact", `<h1>Contact us</h1>
<form method="post" action="/contact">
  <label for="name">Name</label> <input id="name" type="text" name="name">
  <label for="topic">Topic</label>
  <select id="topic" name="topic"><option value="sales">Sales</option><option value="support">Support</option></select>
  <label for="message">Message</label> <textarea id="message" name="message"></textarea>
  <button type="submit">Send</button>
</form>`),
		),
	}
}

// ===== LOGIN =====

const loginForm = `<h1>Sign in</h1>
<form method="post" action="/login" id="login-form">
  %s
  <button type="submit" id="sign-in">Sign in</button>
</form>
<p>Use demo / demo.</p>`

func getLoginPage() PageDefinition {
	return PageDefinition{
		Path:        "/login",
		Description: "Login form used by step replay (demo / demo)",
		Defects:     []string{"label"},
		Versions: pageVersions(
			layout("en", "Sign in", strings.Replace(loginForm, "%s",
				`<input type="text" name="username" id="username">
  <input type="password" name="password" id="password">`, 1)),
			layout("en", "Sign in", strings.Replace(loginForm, "%s",
				`<label for="username">User name</label> <input type="text" name="username" id="username">
  <label for="password">Password</label> <input type="password" name="password" id="password">`, 1)),
		),
	}
}

// ===== ACCOUNT =====

func getAccountPage() PageDefinition {
	return PageDefinition{
		Path:        "/account",
		Description: "Page behind the login with an icon-only button",
		Defects:     []string{"button-name"},
		Private:     true,
		Versions: pageVersions(
			layout("en", "Your account", `<h1>Your account</h1>
<button type="button" id="settings"><img src="/static/gear.png" alt=""></button>
<p><a href="/products">Continue shopping</a></p>`),
			layout("en", "Your account", `<h1>Your account</h1>
<button type="button" id="settings" aria-label="Settings"><img src="/static/gear.png" alt=""></button>
<p><a href="/products">Continue shopping</a></p>`),
		),
	}
}
