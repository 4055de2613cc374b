package epub

// stylesheet is the shared style.css of every exported book.
const stylesheet = `body {
  font-family: serif;
  line-height: 1.8;
  margin: 0 5%;
  text-align: justify;
}

h1, h2, h3, h4, h5, h6 {
  font-family: sans-serif;
  line-height: 1.4;
  margin: 1.5em 0 0.8em;
  text-align: left;
}

h1 {
  font-size: 1.6em;
  page-break-before: always;
}

p {
  margin: 0;
  text-indent: 1em;
}

p + p {
  margin-top: 0.3em;
}

blockquote {
  border-left: 3px solid #ccc;
  margin: 1em 0;
  padding-left: 1em;
  color: #555;
}

pre, code {
  font-family: monospace;
  font-size: 0.9em;
}

pre {
  white-space: pre-wrap;
  background: #f5f5f5;
  padding: 0.8em;
}

hr {
  border: none;
  border-top: 1px solid #999;
  margin: 2em 20%;
}

img {
  max-width: 100%;
  height: auto;
}
`
