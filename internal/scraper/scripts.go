package scraper

// In-page scripts for the maps listing. The selectors are inherently
// site-specific and brittle; each field uses an ordered fallback chain so
// a dead selector degrades to an empty field, never an error.

const consentScript = `(function () {
  const selectors = [
    'button[aria-label="Accept all"]',
    'button[aria-label="I agree"]',
    'button[aria-label="Alles akzeptieren"]',
    'button.VfPpkd-LgbsSe-OWXEXe-k8QpJ'
  ];
  for (const sel of selectors) {
    const btn = document.querySelector(sel);
    if (btn) {
      btn.click();
      return true;
    }
  }
  return false;
})();`

const countItemsScript = `document.querySelectorAll('div.Nv2PK').length;`

const spinnerVisibleScript = `!!document.querySelector('div.lXJj5c.Hk4XGb');`

const scrollFeedScript = `(function () {
  const feed = document.querySelector('div[role="feed"]');
  if (feed) {
    feed.scrollBy(0, feed.offsetHeight);
  } else {
    window.scrollBy(0, 3000);
  }
})();`

const clickItemScript = `(function (i) {
  const cards = document.querySelectorAll('div.Nv2PK');
  if (!cards[i]) {
    return false;
  }
  const link = cards[i].querySelector('a.hfpxzc');
  (link || cards[i]).click();
  return true;
})(%d);`

const extractDetailScript = `(function () {
  const firstText = (selectors) => {
    for (const sel of selectors) {
      const node = document.querySelector(sel);
      if (node && node.textContent && node.textContent.trim()) {
        return node.textContent.trim();
      }
    }
    return '';
  };

  const name = firstText([
    'h1.DUwDvf.lfPIob',
    'h1[class*="DUwDvf"]',
    'h1',
    'div[class*="fontHeadline"]'
  ]);

  let website = '';
  const websiteSelectors = [
    'a[data-item-id="authority"]',
    'a[data-item-id="website"]',
    'a[aria-label="Website"]',
    'a[aria-label*="website"]',
    'a[aria-label*="Website"]'
  ];
  for (const sel of websiteSelectors) {
    const node = document.querySelector(sel);
    if (node) {
      const href = node.href || node.getAttribute('href') || '';
      if (href && !href.startsWith('https://www.google.com/maps')) {
        website = href;
        break;
      }
    }
  }

  let phone = '';
  const phoneSelectors = [
    'button[data-item-id^="phone:tel"]',
    'a[href^="tel:"]',
    'button[aria-label^="Call"]',
    'a[aria-label^="Call"]',
    'div[data-item-id^="phone"] span'
  ];
  for (const sel of phoneSelectors) {
    const node = document.querySelector(sel);
    if (!node) {
      continue;
    }
    const aria = node.getAttribute('aria-label') || '';
    const callMatch = aria.match(/Call\s+(.+)/);
    if (callMatch) {
      phone = callMatch[1].trim();
      break;
    }
    const href = node.getAttribute('href') || '';
    if (href.startsWith('tel:')) {
      phone = href.slice(4).trim();
      break;
    }
    if (node.textContent && node.textContent.trim()) {
      phone = node.textContent.trim();
      break;
    }
  }

  let email = '';
  const mailLink = document.querySelector('a[href^="mailto:"]');
  if (mailLink) {
    email = mailLink.href || '';
  }
  if (!email) {
    const pattern = /[A-Za-z0-9._-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}/;
    const nodes = document.querySelectorAll('div[class*="Io6YTe"]');
    for (const node of nodes) {
      const match = (node.textContent || '').match(pattern);
      if (match) {
        email = match[0];
        break;
      }
    }
  }

  return { name: name, phone: phone, website: website, email: email };
})();`
