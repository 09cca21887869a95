package mcpserver

// NoteFormatContract describes the note format notedex accepts, for LLM
// consumers writing or converting notes.
const NoteFormatContract = `# notedex Note Format Contract

A note is a YAML metadata block, a line containing only ` + "`---`" + `, then the body.

## Structure

` + "```" + `markdown
---
title: Human-readable title   # REQUIRED
subtitle: Optional subtitle
authors: [ada, grace]         # scalar or list; alias: author
tags: vim, shell              # scalar, comma-separated or list; alias: tag
date: 2021-01-02T15:04:05Z    # REQUIRED; RFC 3339, YYYY-MM-DD, YYYYMMDD or epoch seconds
id: 01HZY...                  # optional; generated when missing
parentid: 01HZY...            # optional; defaults to id
links: [other-id]
---
Body text in standard Markdown.
` + "```" + `

## Rules

1. **The separator line is mandatory.** The block ends at the first line that
   is exactly ` + "`---`" + `. An opening ` + "`---`" + ` line is optional.
2. **` + "`title`" + ` and ` + "`date`" + ` are required.** A block without either is rejected.
3. **The body is kept byte for byte.** Everything after the separator is the body.
4. **Tags and authors** accept a single string, a comma-separated string or a list.
   Numbers, booleans and nested maps are rejected.
5. **Dates** are stored as Unix seconds and written back in RFC 3339 UTC.
6. **Identity:** a note without ` + "`id`" + ` gets a fresh ULID, and its ` + "`parentid`" + ` equals its id.

## Modes

- ` + "`storage`" + `: every field plus body and filename, as sent to the search service.
- ` + "`disk`" + `: note-file metadata only; the body follows the separator in the file.
- ` + "`human`" + `: the body text alone.

## Legacy notes

The legacy schema has one ` + "`author`" + ` string, ` + "`date`" + `, ` + "`tags`" + `, ` + "`title`" + ` and
` + "`subtitle`" + `, fenced by ` + "`---`" + ` (YAML), ` + "`+++`" + ` (TOML) or ` + "`;;;`" + ` (JSON).
Use the ` + "`convert_legacy`" + ` tool to turn one into the current schema.

## Search filters

` + "`|`" + ` joins alternatives, ` + "`&`" + ` joins required terms, ` + "`!`" + ` negates a term.
A term is ` + "`field:value`" + ` or a bare value, which matches tags.
Example: ` + "`vim & !bash | authors:ada`" + `.
`
