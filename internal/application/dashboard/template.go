package dashboard

import "html/template"

var pageTemplate = template.Must(template.New("dashboard").Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: "Segoe UI", Helvetica, Arial, sans-serif; margin: 0; background: #f4f6f8; color: #24292f; }
  header { background: #1f3a5f; color: #fff; padding: 14px 24px; }
  header h1 { margin: 0; font-size: 20px; }
  header .mv-counts { font-size: 12px; opacity: 0.85; margin-top: 4px; }
  nav { background: #fff; border-bottom: 1px solid #d0d7de; padding: 0 24px; }
  nav button { background: none; border: none; border-bottom: 3px solid transparent; padding: 12px 16px; font-size: 14px; cursor: pointer; color: #57606a; }
  nav button.mv-active { color: #1f3a5f; border-bottom-color: #1f3a5f; font-weight: 600; }
  main { display: flex; gap: 16px; padding: 16px 24px; align-items: flex-start; }
  .mv-tabs { flex: 1; min-width: 0; }
  .mv-tab { display: none; }
  .mv-tab.mv-active { display: block; }
  .mv-grid { display: flex; flex-wrap: wrap; gap: 16px; }
  .mv-plot { background: #fff; border: 1px solid #d0d7de; border-radius: 6px; padding: 10px; }
  .mv-plot h3 { margin: 0 0 6px; font-size: 14px; color: #1f3a5f; }
  .mv-canvas { display: block; }
  .mv-axis { stroke: #57606a; stroke-width: 1; }
  .mv-tick { stroke: #57606a; stroke-width: 1; }
  .mv-ticklabel { font-size: 9px; fill: #57606a; }
  .mv-axislabel { font-size: 11px; fill: #24292f; }
  .mv-empty { font-size: 12px; fill: #8b949e; }
  .mv-marker { stroke: #ffffff; stroke-width: 1; cursor: pointer; opacity: 0.85; }
  .mv-marker.mv-hot, tr.mv-hot { opacity: 1; }
  .mv-marker.mv-hot { stroke: #d62828; stroke-width: 3; r: 7; }
  tr.mv-hot { background: #ffe3e3; }
  .mv-detail { width: 290px; flex: none; background: #fff; border: 1px solid #d0d7de; border-radius: 6px; padding: 14px; position: sticky; top: 16px; }
  .mv-detail h3 { margin: 0 0 8px; font-size: 14px; color: #1f3a5f; }
  .mv-detail .mv-hint { color: #8b949e; font-size: 12px; }
  .mv-detail img { width: 100%; background: #fff; border: 1px solid #eaeef2; border-radius: 4px; }
  .mv-detail table { width: 100%; border-collapse: collapse; font-size: 12px; margin-top: 8px; }
  .mv-detail td { padding: 3px 2px; border-bottom: 1px solid #eaeef2; }
  .mv-detail td:last-child { text-align: right; font-variant-numeric: tabular-nums; }
  .mv-smiles { font-family: monospace; font-size: 11px; word-break: break-all; color: #57606a; }
  .mv-clear { margin-top: 10px; width: 100%; padding: 6px; border: 1px solid #d0d7de; background: #f6f8fa; border-radius: 4px; cursor: pointer; }
  table.mv-docktable { width: 100%; border-collapse: collapse; font-size: 13px; background: #fff; }
  table.mv-docktable th, table.mv-docktable td { text-align: left; padding: 8px 10px; border-bottom: 1px solid #eaeef2; }
  table.mv-docktable tr[data-idx] { cursor: pointer; }
  .mv-bar { display: inline-block; height: 10px; background: #4477aa; border-radius: 2px; vertical-align: middle; }
</style>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <div class="mv-counts">{{.Count}} compounds{{if .SkippedCount}} &middot; {{.SkippedCount}} skipped{{end}}{{if .DockedCount}} &middot; {{.DockedCount}} docked{{end}}</div>
</header>
<nav>
  <button class="mv-tabbtn mv-active" data-tab="tab-overview">Overview</button>
  <button class="mv-tabbtn" data-tab="tab-chemspace">Chemical Space</button>
  {{if .ShowDocking}}<button class="mv-tabbtn" data-tab="tab-docking">Docking</button>{{end}}
</nav>
<main>
<div class="mv-tabs">
  <section id="tab-overview" class="mv-tab mv-active">
    <div class="mv-grid">
      {{range .PropertyPlots}}
      <div class="mv-plot" id="{{.ID}}">
        <h3>{{.Title}}</h3>
        {{.SVG}}
      </div>
      {{end}}
    </div>
  </section>
  <section id="tab-chemspace" class="mv-tab">
    <div class="mv-grid">
      {{with .PCAPlot}}
      <div class="mv-plot" id="{{.ID}}">
        <h3>{{.Title}}</h3>
        {{.SVG}}
      </div>
      {{end}}
      {{with .TSNEPlot}}
      <div class="mv-plot" id="{{.ID}}">
        <h3>{{.Title}}</h3>
        {{.SVG}}
      </div>
      {{end}}
      {{if and (not .PCAPlot) (not .TSNEPlot)}}
      <p class="mv-hint">No chemical-space projections were computed for this run.</p>
      {{end}}
    </div>
  </section>
  {{if .ShowDocking}}
  <section id="tab-docking" class="mv-tab">
    <div class="mv-plot" id="plot-docking">
      <table class="mv-docktable">
        <thead><tr><th>Compound</th><th>Score (kcal/mol)</th><th>Pose</th><th></th></tr></thead>
        <tbody>
          {{range .DockingRows}}
          <tr data-idx="{{.Index}}">
            <td>{{.Name}}</td>
            <td>{{printf "%.1f" .Score}}</td>
            <td>{{.PoseRank}}</td>
            <td><span class="mv-bar" style="width: {{.BarWidth}}%"></span></td>
          </tr>
          {{end}}
        </tbody>
      </table>
    </div>
  </section>
  {{end}}
</div>
<aside class="mv-detail" id="mv-detail">
  <h3>Compound Detail</h3>
  <div class="mv-hint">Hover a point to inspect a compound. Click to lock.</div>
</aside>
</main>
<script type="application/json" id="mv-records">{{.RecordsJSON}}</script>
<script type="application/json" id="mv-fields">{{.FieldsJSON}}</script>
<script>
(function () {
  "use strict";
  var records = JSON.parse(document.getElementById("mv-records").textContent);
  var fields = JSON.parse(document.getElementById("mv-fields").textContent);
  var byIndex = {};
  records.forEach(function (r) { byIndex[r.index] = r; });

  // Per-plot registries, built once: index -> [marker elements].
  var registries = [];
  var current = null;
  var locked = false;

  function fmt(v) {
    if (v === undefined || v === null) return "n/a";
    if (Number.isInteger(v)) return String(v);
    return v.toFixed(2);
  }

  function lookup(record, key) {
    if (record.descriptors && key in record.descriptors) return record.descriptors[key];
    if (record.properties && key in record.properties) return record.properties[key];
    return undefined;
  }

  function renderDetail(idx) {
    var panel = document.getElementById("mv-detail");
    if (idx === null || !(idx in byIndex)) {
      panel.innerHTML = '<h3>Compound Detail</h3><div class="mv-hint">Hover a point to inspect a compound. Click to lock.</div>';
      return;
    }
    var r = byIndex[idx];
    var html = "<h3>" + escapeHTML(r.name) + "</h3>";
    if (r.image) html += '<img src="' + r.image + '" alt="structure">';
    html += '<div class="mv-smiles">' + escapeHTML(r.smiles) + "</div>";
    html += "<table>";
    fields.forEach(function (f) {
      var unit = f.unit ? " " + f.unit : "";
      var v = lookup(r, f.key);
      html += "<tr><td>" + escapeHTML(f.label) + "</td><td>" +
        (v === undefined ? "n/a" : fmt(v) + unit) + "</td></tr>";
    });
    html += "<tr><td>Docking score</td><td>" +
      (r.docking ? fmt(r.docking.score) + " kcal/mol" : "n/a") + "</td></tr>";
    if (r.neighbor) {
      html += "<tr><td>Nearest neighbor</td><td>" + escapeHTML(r.neighbor.name) +
        " (" + r.neighbor.similarity.toFixed(2) + ")</td></tr>";
    }
    html += "</table>";
    html += '<button class="mv-clear" id="mv-clearbtn">Clear selection</button>';
    panel.innerHTML = html;
    document.getElementById("mv-clearbtn").addEventListener("click", function () {
      locked = false;
      clearHighlight();
    });
  }

  function escapeHTML(s) {
    return String(s).replace(/[&<>"']/g, function (c) {
      return { "&": "&amp;", "<": "&lt;", ">": "&gt;", '"': "&quot;", "'": "&#39;" }[c];
    });
  }

  function applyHighlight(idx, on) {
    registries.forEach(function (reg) {
      (reg[idx] || []).forEach(function (el) {
        el.classList.toggle("mv-hot", on);
      });
    });
  }

  function highlight(idx) {
    if (current !== null && current !== idx) applyHighlight(current, false);
    applyHighlight(idx, true);
    current = idx;
    renderDetail(idx);
  }

  function clearHighlight() {
    if (current !== null) applyHighlight(current, false);
    current = null;
    renderDetail(null);
  }

  document.querySelectorAll(".mv-plot").forEach(function (plot) {
    var reg = {};
    plot.querySelectorAll("[data-idx]").forEach(function (el) {
      var idx = parseInt(el.getAttribute("data-idx"), 10);
      if (!reg[idx]) reg[idx] = [];
      reg[idx].push(el);
      el.addEventListener("mouseenter", function () { if (!locked) highlight(idx); });
      el.addEventListener("mouseleave", function () { if (!locked) clearHighlight(); });
      el.addEventListener("click", function (ev) {
        ev.stopPropagation();
        if (locked && current === idx) {
          locked = false;
          clearHighlight();
        } else {
          locked = true;
          highlight(idx);
        }
      });
    });
    registries.push(reg);
  });

  document.querySelectorAll(".mv-tabbtn").forEach(function (btn) {
    btn.addEventListener("click", function () {
      document.querySelectorAll(".mv-tabbtn").forEach(function (b) { b.classList.remove("mv-active"); });
      document.querySelectorAll(".mv-tab").forEach(function (t) { t.classList.remove("mv-active"); });
      btn.classList.add("mv-active");
      document.getElementById(btn.getAttribute("data-tab")).classList.add("mv-active");
    });
  });
})();
</script>
</body>
</html>
`
